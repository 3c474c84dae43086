// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wifi

import (
	"fmt"
	"math"
)

// Parser turns the raw text of one scan into networks. Blocks that do not
// yield an SSID are dropped; a scan with no usable block yields nil.
type Parser interface {
	Parse(raw []byte) []Network
}

// NewParser returns the parser for scan text produced on platform p.
func NewParser(p Platform) (Parser, error) {
	switch p {
	case PlatformNetsh:
		return NetshParser{}, nil
	case PlatformIWList:
		return IWListParser{}, nil
	}
	return nil, fmt.Errorf("no scan parser for platform %v", p)
}

// DBMToPercent maps a signal level in dBm onto 0-100, -90 dBm and below
// being 0 and -30 dBm and above being 100.
func DBMToPercent(dbm int) int {
	return clampPercent(int(math.Round(float64(dbm+90) * 100 / 60)))
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
