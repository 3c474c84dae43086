// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wifi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// DefaultScanTimeout bounds a single scan command.
const DefaultScanTimeout = 10 * time.Second

// CommandRunner runs name with args, wiring its output to stdout and stderr.
type CommandRunner func(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) error

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout, cmd.Stderr = stdout, stderr
	return cmd.Run()
}

// Scanner obtains raw scan text for a platform and parses it.
type Scanner struct {
	Platform  Platform
	Interface string
	Timeout   time.Duration
	Run       CommandRunner
	// Stdout, if set, also receives the raw scan text.
	Stdout io.Writer
	Stderr io.Writer
}

// Scan runs one scan pass. Failing to obtain raw text is reported as
// ErrSourceUnavailable.
func (s *Scanner) Scan(ctx context.Context) ([]Network, error) {
	p, err := NewParser(s.Platform)
	if err != nil {
		return nil, err
	}
	raw, err := s.Raw(ctx)
	if err != nil {
		return nil, err
	}
	return p.Parse(raw), nil
}

// Raw runs the platform's scan command and returns its output.
func (s *Scanner) Raw(ctx context.Context) ([]byte, error) {
	var name string
	var args []string
	switch s.Platform {
	case PlatformNetsh:
		name, args = "netsh", []string{"wlan", "show", "networks", "mode=bssid"}
	case PlatformIWList:
		if s.Interface == "" {
			return nil, fmt.Errorf("%w: no wireless interface", ErrSourceUnavailable)
		}
		name, args = "iwlist", []string{s.Interface, "scan"}
	default:
		return nil, fmt.Errorf("%w: no scan command for platform %v", ErrSourceUnavailable, s.Platform)
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultScanTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	run := s.Run
	if run == nil {
		run = ExecRunner
	}
	stderr := s.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	// Need a local copy of the output to parse it.
	var execOutput bytes.Buffer
	stdout := io.Writer(&execOutput)
	if s.Stdout != nil {
		stdout = io.MultiWriter(&execOutput, s.Stdout)
	}
	if err := run(ctx, stdout, stderr, name, args...); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: %s timed out after %v", ErrSourceUnavailable, name, timeout)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, name, err)
	}
	return execOutput.Bytes(), nil
}
