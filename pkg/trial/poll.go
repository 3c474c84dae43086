// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trial

import (
	"context"
	"fmt"
	"time"
)

// Clock is the time source of an Engine.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// Poller retries a check a bounded number of times.
type Poller struct {
	Attempts int
	Interval time.Duration
	Clock    Clock
}

// Poll calls check until it reports true, at most p.Attempts times with
// p.Interval between calls. A check error counts as false. It returns the
// number of checks made, and ErrPollTimeout if none succeeded.
func (p Poller) Poll(ctx context.Context, check func(context.Context) (bool, error)) (int, error) {
	clock := p.Clock
	if clock == nil {
		clock = realClock{}
	}
	var lastErr error
	for i := 1; i <= p.Attempts; i++ {
		if i > 1 {
			clock.Sleep(p.Interval)
		}
		ok, err := check(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		if ok {
			return i, nil
		}
	}
	if lastErr != nil {
		return p.Attempts, fmt.Errorf("%w after %d checks (last error: %v)", ErrPollTimeout, p.Attempts, lastErr)
	}
	return p.Attempts, fmt.Errorf("%w after %d checks", ErrPollTimeout, p.Attempts)
}
