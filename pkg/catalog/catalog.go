// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package catalog keeps the networks seen in the latest scan pass, one per
// SSID, ranked by signal strength.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/u-root/wifiseek/pkg/wifi"
)

var (
	// ErrRescan is returned by Resolve for the reserved selection "0".
	ErrRescan = errors.New("rescan requested")
	// ErrBadIndex is returned by At and Resolve for an index outside the catalog.
	ErrBadIndex = errors.New("no network with that number")
	// ErrEmptySelection is returned by Resolve for blank input.
	ErrEmptySelection = errors.New("network name cannot be empty")
)

// Catalog is the deduplicated, ranked view of one scan pass.
type Catalog struct {
	networks []wifi.Network
	bySSID   map[string]int
}

// New builds a catalog from the networks of a single scan. When an SSID is
// seen more than once the strongest record is kept, the first one on ties.
// The result is ordered by decreasing signal, first-seen order on ties.
func New(scan []wifi.Network) *Catalog {
	var networks []wifi.Network
	seen := make(map[string]int)
	for _, n := range scan {
		i, ok := seen[n.SSID]
		if !ok {
			seen[n.SSID] = len(networks)
			networks = append(networks, n)
			continue
		}
		if n.Signal > networks[i].Signal {
			networks[i] = n
		}
	}

	sort.SliceStable(networks, func(i, j int) bool {
		return networks[i].Signal > networks[j].Signal
	})

	c := &Catalog{networks: networks, bySSID: make(map[string]int, len(networks))}
	for i, n := range networks {
		c.bySSID[n.SSID] = i
	}
	return c
}

// Len returns the number of distinct networks.
func (c *Catalog) Len() int {
	return len(c.networks)
}

// Networks returns the ranked networks.
func (c *Catalog) Networks() []wifi.Network {
	return append([]wifi.Network(nil), c.networks...)
}

// At returns the network listed at the 1-based position i.
func (c *Catalog) At(i int) (wifi.Network, error) {
	if i < 1 || i > len(c.networks) {
		return wifi.Network{}, fmt.Errorf("%w: %d (1-%d)", ErrBadIndex, i, len(c.networks))
	}
	return c.networks[i-1], nil
}

// Lookup returns the network named ssid.
func (c *Catalog) Lookup(ssid string) (wifi.Network, bool) {
	i, ok := c.bySSID[ssid]
	if !ok {
		return wifi.Network{}, false
	}
	return c.networks[i], true
}

// Resolve turns an operator's selection into an SSID. A number picks the
// network listed at that position, "0" asks for a rescan, and anything
// else is taken as the SSID itself, listed or not.
func (c *Catalog) Resolve(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrEmptySelection
	}
	if !isDigits(input) {
		return input, nil
	}
	i, err := strconv.Atoi(input)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrBadIndex, input)
	}
	if i == 0 {
		return "", ErrRescan
	}
	n, err := c.At(i)
	if err != nil {
		return "", err
	}
	return n.SSID, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
