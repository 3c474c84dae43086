// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package credstore persists credentials that were confirmed by a
// successful association, at most one per SSID.
package credstore

import (
	"context"
	"errors"
	"sort"
	"time"
)

// TimeLayout is how LastConnected is written to disk.
const TimeLayout = "2006-01-02 15:04:05"

// ErrCorrupt is returned when the stored data cannot be decoded.
var ErrCorrupt = errors.New("credential store is corrupt")

// Entry is a confirmed working credential.
type Entry struct {
	SSID          string
	Password      string
	LastConnected time.Time
}

// Store holds entries keyed by SSID. Upsert replaces any entry for the
// same SSID.
type Store interface {
	Load(ctx context.Context) (map[string]Entry, error)
	Upsert(ctx context.Context, e Entry) error
}

// List returns the entries of s ordered by SSID.
func List(ctx context.Context, s Store) ([]Entry, error) {
	m, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(m))
	for _, e := range m {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].SSID < entries[j].SSID
	})
	return entries, nil
}
