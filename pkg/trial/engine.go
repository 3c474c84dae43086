// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package trial tries candidate credentials against one network, one at a
// time, until the interface reports an association.
package trial

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/u-root/wifiseek/pkg/credstore"
	"github.com/u-root/wifiseek/pkg/wifi"
)

const (
	DefaultPollAttempts = 20
	DefaultPollInterval = 500 * time.Millisecond
	DefaultPace         = time.Second
)

var (
	// ErrExhausted is returned when every candidate failed.
	ErrExhausted = errors.New("no candidate password worked")
	// ErrNoCandidates is returned for a secured network and an empty list.
	ErrNoCandidates = errors.New("no candidate passwords")
	ErrConfigure    = errors.New("configure profile")
	ErrConnect      = errors.New("connect")
	ErrPollTimeout  = errors.New("association not confirmed")
)

// Engine runs connection attempts over a wifi.Controller.
type Engine struct {
	ctrl         wifi.Controller
	log          *zap.SugaredLogger
	pollAttempts int
	pollInterval time.Duration
	pace         time.Duration
	clock        Clock
	store        credstore.Store
	workers      int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(e *Engine) { e.log = l }
}

// WithPollAttempts bounds the status checks of one attempt.
func WithPollAttempts(n int) Option {
	return func(e *Engine) { e.pollAttempts = n }
}

// WithPollInterval sets the delay between status checks.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) { e.pollInterval = d }
}

// WithPace sets the minimum time between the starts of two attempts. Zero
// disables pacing.
func WithPace(d time.Duration) Option {
	return func(e *Engine) { e.pace = d }
}

// WithClock replaces the time source used while polling.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithStore records confirmed credentials in s.
func WithStore(s credstore.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithWorkers sets the requested concurrency. Attempts share one interface
// and always run one at a time.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// New returns an Engine driving ctrl.
func New(ctrl wifi.Controller, opts ...Option) *Engine {
	e := &Engine{
		ctrl:         ctrl,
		log:          zap.NewNop().Sugar(),
		pollAttempts: DefaultPollAttempts,
		pollInterval: DefaultPollInterval,
		pace:         DefaultPace,
		clock:        realClock{},
		workers:      1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.pollAttempts < 1 {
		e.pollAttempts = 1
	}
	return e
}

// Result summarizes a sequence of attempts.
type Result struct {
	RunID    string
	SSID     string
	Password string
	Found    bool
	Attempts []Attempt
	// Resets counts the disconnect and profile removal pairs issued after
	// failed attempts. One more is always issued before the first attempt.
	Resets int
	// StoreErr is set when a working credential could not be recorded.
	StoreErr error
}

// Run tries passwords against ssid in order and stops at the first one
// the interface confirms. An open network is tried once without a
// credential. The interface is reset before the first attempt and after
// every failed one. Cancellation of ctx is honoured between attempts only.
func (e *Engine) Run(ctx context.Context, ssid string, passwords []string, open bool) (Result, error) {
	candidates := passwords
	if open {
		candidates = []string{""}
	}
	if len(candidates) == 0 {
		return Result{SSID: ssid}, ErrNoCandidates
	}
	return e.sequence(ctx, ssid, candidates, open)
}

// TryOne makes a single attempt with password, or without a credential
// when open is set.
func (e *Engine) TryOne(ctx context.Context, ssid, password string, open bool) (Result, error) {
	res, err := e.sequence(ctx, ssid, []string{password}, open)
	if errors.Is(err, ErrExhausted) && len(res.Attempts) == 1 {
		return res, res.Attempts[0].Err
	}
	return res, err
}

func (e *Engine) sequence(ctx context.Context, ssid string, candidates []string, open bool) (Result, error) {
	res := Result{RunID: uuid.NewString(), SSID: ssid}
	log := e.log.With("run", res.RunID)
	if e.workers > 1 {
		log.Debugf("%d workers requested, attempts run sequentially on one interface", e.workers)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if e.pace > 0 {
		limiter = rate.NewLimiter(rate.Every(e.pace), 1)
	}

	for i, pw := range candidates {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			return res, err
		}

		if i == 0 {
			// Whatever the interface holds from before must not meet the first attempt.
			e.reset(context.WithoutCancel(ctx), log)
		}

		log.Infof("attempt %d/%d ssid=%s", i+1, len(candidates), ssid)
		// A started attempt runs to a terminal state whatever happens to ctx.
		a := e.attempt(context.WithoutCancel(ctx), log, ssid, pw, open)
		res.Attempts = append(res.Attempts, a)

		if a.Outcome == OutcomeConnected {
			res.Found, res.Password = true, pw
			log.Infof("connected to %s after %d attempts", ssid, i+1)
			res.StoreErr = e.persist(context.WithoutCancel(ctx), ssid, pw)
			if res.StoreErr != nil {
				log.Warnf("recording credential for %s: %v", ssid, res.StoreErr)
			}
			return res, nil
		}

		log.Warnf("attempt %d/%d ssid=%s: %s: %v", i+1, len(candidates), ssid, a.Outcome, a.Err)
		e.reset(context.WithoutCancel(ctx), log)
		res.Resets++
	}
	return res, ErrExhausted
}

func (e *Engine) attempt(ctx context.Context, log *zap.SugaredLogger, ssid, pw string, open bool) Attempt {
	a := Attempt{SSID: ssid, Password: pw, Open: open, State: Idle, Outcome: OutcomePending}
	if open {
		a.Password = ""
	}
	var h wifi.ProfileHandle
	for !a.State.Terminal() {
		switch a.State {
		case Idle:
			a.State = Configuring

		case Configuring:
			var err error
			h, err = e.ctrl.ConfigureProfile(ctx, wifi.NewProfile(ssid, a.Password, open))
			if err != nil {
				a.fail(OutcomeError, fmt.Errorf("%w: %v", ErrConfigure, err))
				continue
			}
			a.State = Connecting

		case Connecting:
			if err := e.ctrl.Connect(ctx, h); err != nil {
				a.fail(OutcomeError, fmt.Errorf("%w: %v", ErrConnect, err))
				continue
			}
			a.State = Polling

		case Polling:
			p := Poller{Attempts: e.pollAttempts, Interval: e.pollInterval, Clock: e.clock}
			n, err := p.Poll(ctx, func(ctx context.Context) (bool, error) {
				s, err := e.ctrl.Status(ctx)
				if err != nil {
					log.Debugf("status: %v", err)
				}
				return s == wifi.StatusConnected, err
			})
			a.Polls = n
			if err != nil {
				a.fail(OutcomeFailed, err)
				continue
			}
			a.State, a.Outcome = Connected, OutcomeConnected
		}
	}
	return a
}

// reset returns the interface to a neutral state. Failures are not fatal.
func (e *Engine) reset(ctx context.Context, log *zap.SugaredLogger) {
	if err := e.ctrl.Disconnect(ctx); err != nil {
		log.Debugf("reset: disconnect: %v", err)
	}
	if err := e.ctrl.RemoveAllProfiles(ctx); err != nil {
		log.Debugf("reset: remove profiles: %v", err)
	}
}

func (e *Engine) persist(ctx context.Context, ssid, pw string) error {
	if e.store == nil {
		return nil
	}
	return e.store.Upsert(ctx, credstore.Entry{SSID: ssid, Password: pw, LastConnected: e.clock.Now()})
}
