// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trial

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadPasswords returns the non-blank lines of r, trimmed, in order.
func ReadPasswords(r io.Reader) ([]string, error) {
	var pws []string
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), 1<<20)
	for s.Scan() {
		if pw := strings.TrimSpace(s.Text()); pw != "" {
			pws = append(pws, pw)
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return pws, nil
}

// LoadPasswords reads a password list file.
func LoadPasswords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	pws, err := ReadPasswords(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pws, nil
}
