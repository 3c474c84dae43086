// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trial

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPasswords(t *testing.T) {
	in := "  12345678 \r\n\npassword\n\t\nqwertyuiop\n"
	pws, err := ReadPasswords(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"12345678", "password", "qwertyuiop"}, pws)
}

func TestLoadPasswords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "password.txt")
	require.NoError(t, os.WriteFile(path, []byte("a1b2c3d4\n密码12345678\n"), 0o600))
	pws, err := LoadPasswords(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1b2c3d4", "密码12345678"}, pws)

	_, err = LoadPasswords(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
