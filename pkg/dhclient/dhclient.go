// Copyright 2019 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dhclient configures a freshly associated interface from DHCP.
package dhclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/u-root/u-root/pkg/dhclient"
	"github.com/vishvananda/netlink"
	"go.uber.org/zap"
)

// ErrNoLease is returned when no request produced a usable lease.
var ErrNoLease = errors.New("no dhcp lease")

// Config controls the requests.
type Config struct {
	// Timeout is the per-packet timeout.
	Timeout time.Duration
	Retries int
	IPv4    bool
	IPv6    bool
	Verbose bool
}

// DefaultConfig asks for an IPv4 lease with the dhclient command defaults.
func DefaultConfig() Config {
	return Config{Timeout: 15 * time.Second, Retries: 5, IPv4: true}
}

// matchLinks returns the links called ifName.
func matchLinks(links []netlink.Link, ifName string) []netlink.Link {
	var filtered []netlink.Link
	for _, l := range links {
		if l.Attrs().Name == ifName {
			filtered = append(filtered, l)
		}
	}
	return filtered
}

// Request obtains a lease for ifName and applies it to the interface.
func Request(ctx context.Context, ifName string, c Config, log *zap.SugaredLogger) error {
	if !c.IPv4 && !c.IPv6 {
		return fmt.Errorf("%s: neither ipv4 nor ipv6 requested", ifName)
	}
	links, err := netlink.LinkList()
	if err != nil {
		return fmt.Errorf("can't get list of link names: %w", err)
	}
	ifs := matchLinks(links, ifName)
	if len(ifs) == 0 {
		return fmt.Errorf("no interface named %s", ifName)
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout*time.Duration(1<<uint(c.Retries)))
	defer cancel()

	dc := dhclient.Config{
		Timeout: c.Timeout,
		Retries: c.Retries,
	}
	if c.Verbose {
		dc.LogLevel = dhclient.LogSummary
	}
	r := dhclient.SendRequests(ctx, ifs, c.IPv4, c.IPv6, dc, 30*time.Second)

	configured := false
	for {
		select {
		case <-ctx.Done():
			if configured {
				return nil
			}
			return fmt.Errorf("%w on %s: %v", ErrNoLease, ifName, ctx.Err())

		case result, ok := <-r:
			if !ok {
				if configured {
					return nil
				}
				return fmt.Errorf("%w on %s", ErrNoLease, ifName)
			}
			name := result.Interface.Attrs().Name
			if result.Err != nil {
				log.Warnf("could not configure %s: %v", name, result.Err)
			} else if err := result.Lease.Configure(); err != nil {
				log.Warnf("could not configure %s: %v", name, err)
			} else {
				log.Infof("configured %s with %s", name, result.Lease)
				configured = true
			}
		}
	}
}
