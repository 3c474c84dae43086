// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trial

// State is a step of a single connection attempt.
type State int

const (
	Idle State = iota
	Configuring
	Connecting
	Polling
	Connected
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Configuring:
		return "configuring"
	case Connecting:
		return "connecting"
	case Polling:
		return "polling"
	case Connected:
		return "connected"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether an attempt in state s is finished.
func (s State) Terminal() bool {
	return s == Connected || s == Failed
}

// Outcome is how an attempt ended.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeConnected
	// OutcomeFailed means the interface never reported the association.
	OutcomeFailed
	// OutcomeError means the interface refused the profile or the connect request.
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeConnected:
		return "connected"
	case OutcomeFailed:
		return "failed"
	case OutcomeError:
		return "error"
	}
	return "unknown"
}

// Attempt records one credential tried against one SSID.
type Attempt struct {
	SSID     string
	Password string
	Open     bool
	State    State
	Outcome  Outcome
	// Polls is the number of status checks made.
	Polls int
	Err   error
}

func (a *Attempt) fail(o Outcome, err error) {
	a.State, a.Outcome, a.Err = Failed, o, err
}
