// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wifi

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

var _ = Controller(&StubController{})

// StubController is an in-memory Controller. It associates when Accept
// approves the connected profile and records every call it receives.
type StubController struct {
	Ifaces []string
	Accept func(Profile) bool
	// Delay is the number of status checks answered "not connected" before
	// an accepted profile reports connected.
	Delay int
	// Exclusive makes Connect fail while a profile is still active, as a
	// supplicant already bound to the interface does.
	Exclusive bool

	ConfigureErr  error
	ConnectErr    error
	DisconnectErr error
	RemoveErr     error
	StatusErr     error

	mu        sync.Mutex
	calls     []string
	profiles  map[ProfileHandle]Profile
	next      int
	active    *Profile
	connected bool
	polls     int
}

// NewStubController returns a stub with the given interfaces that accepts
// whatever accept approves.
func NewStubController(accept func(Profile) bool, ifaces ...string) *StubController {
	return &StubController{Ifaces: ifaces, Accept: accept}
}

// AcceptPassword approves secured profiles for ssid carrying password.
func AcceptPassword(ssid, password string) func(Profile) bool {
	return func(p Profile) bool {
		return !p.Open && p.SSID == ssid && p.Password == password
	}
}

// AcceptOpen approves open profiles for ssid.
func AcceptOpen(ssid string) func(Profile) bool {
	return func(p Profile) bool {
		return p.Open && p.SSID == ssid
	}
}

func (w *StubController) record(format string, a ...interface{}) {
	w.calls = append(w.calls, fmt.Sprintf(format, a...))
}

// Calls returns the calls received so far, e.g. "configure HomeNet".
func (w *StubController) Calls() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.calls...)
}

// Count returns how many calls started with op.
func (w *StubController) Count(op string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, c := range w.calls {
		if c == op || strings.HasPrefix(c, op+" ") {
			n++
		}
	}
	return n
}

// Profiles returns the number of installed profiles.
func (w *StubController) Profiles() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.profiles)
}

// Associate leaves the stub connected to p as if by an earlier session.
func (w *StubController) Associate(p Profile) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.active = &p
	w.connected = true
}

// Associated reports whether a profile is currently active.
func (w *StubController) Associated() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active != nil
}

func (w *StubController) Interfaces(ctx context.Context) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.record("interfaces")
	return w.Ifaces, nil
}

func (w *StubController) ConfigureProfile(ctx context.Context, p Profile) (ProfileHandle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.record("configure %s", p.SSID)
	if w.ConfigureErr != nil {
		return "", w.ConfigureErr
	}
	if w.profiles == nil {
		w.profiles = make(map[ProfileHandle]Profile)
	}
	h := ProfileHandle(fmt.Sprintf("stub-%d", w.next))
	w.next++
	w.profiles[h] = p
	return h, nil
}

func (w *StubController) Connect(ctx context.Context, h ProfileHandle) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.record("connect %s", h)
	if w.ConnectErr != nil {
		return w.ConnectErr
	}
	if w.Exclusive && w.active != nil {
		return fmt.Errorf("interface busy with %q", w.active.SSID)
	}
	p, ok := w.profiles[h]
	if !ok {
		return fmt.Errorf("unknown profile %q", h)
	}
	w.active = &p
	w.polls = 0
	w.connected = w.Accept != nil && w.Accept(p)
	return nil
}

func (w *StubController) Disconnect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.record("disconnect")
	if w.DisconnectErr != nil {
		return w.DisconnectErr
	}
	w.active = nil
	w.connected = false
	return nil
}

func (w *StubController) RemoveAllProfiles(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.record("remove-profiles")
	if w.RemoveErr != nil {
		return w.RemoveErr
	}
	w.profiles = nil
	return nil
}

func (w *StubController) Status(ctx context.Context) (Status, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.record("status")
	if w.StatusErr != nil {
		return StatusDisconnected, w.StatusErr
	}
	if w.active == nil || !w.connected {
		return StatusDisconnected, nil
	}
	if w.polls < w.Delay {
		w.polls++
		return StatusDisconnected, nil
	}
	return StatusConnected, nil
}
