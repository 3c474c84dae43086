// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/fatih/color"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
)

// formatSignal colours a signal percentage by strength.
func formatSignal(signal int) string {
	s := fmt.Sprintf("%d%%", signal)
	switch {
	case signal >= 70:
		return colorSuccess(s)
	case signal >= 40:
		return colorWarn(s)
	default:
		return colorError(s)
	}
}
