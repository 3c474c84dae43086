// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/u-root/wifiseek/pkg/credstore"
	"github.com/u-root/wifiseek/pkg/dhclient"
	"github.com/u-root/wifiseek/pkg/trial"
	"github.com/u-root/wifiseek/pkg/wifi"
)

const stubInterface = "stub0"

func hostPlatform() wifi.Platform {
	return wifi.DetectPlatform(runtime.GOOS)
}

// toolOutput is where the output of wpa_supplicant and friends goes.
func toolOutput() io.Writer {
	if verbose {
		return os.Stderr
	}
	return io.Discard
}

// wirelessInterfaces lists the interfaces a controller could drive.
func wirelessInterfaces(ctx context.Context) ([]string, error) {
	if dryRun {
		return []string{stubInterface}, nil
	}
	switch hostPlatform() {
	case wifi.PlatformIWList:
		return (&wifi.IWLController{}).Interfaces(ctx)
	case wifi.PlatformNetsh:
		return wifi.NewNetshController(toolOutput(), toolOutput(), "").Interfaces(ctx)
	}
	return nil, nil
}

// resolveInterface returns the configured interface or the first wireless one.
func resolveInterface(ctx context.Context) (string, error) {
	if cfg.Interface != "" {
		return cfg.Interface, nil
	}
	names, err := wirelessInterfaces(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", wifi.ErrSourceUnavailable, err)
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w: no wireless interface", wifi.ErrSourceUnavailable)
	}
	return names[0], nil
}

// openController returns the controller for iface.
func openController(ctx context.Context, iface string) (wifi.Controller, error) {
	if dryRun {
		return wifi.NewStubController(nil, stubInterface), nil
	}
	switch p := hostPlatform(); p {
	case wifi.PlatformNetsh:
		c := wifi.NewNetshController(toolOutput(), toolOutput(), iface)
		c.ConfDir = cfg.ConfigDir
		return c, nil
	case wifi.PlatformUnknown:
		return nil, fmt.Errorf("no interface controller for %v hosts, try --dry-run", p)
	}
	c, err := wifi.NewIWLController(ctx, toolOutput(), toolOutput(), iface)
	if err != nil {
		return nil, fmt.Errorf("bring up %s: %w", iface, err)
	}
	c.ConfDir = cfg.ConfigDir
	return c, nil
}

// openStore returns the configured credential store and its closer.
func openStore() (credstore.Store, func() error, error) {
	if cfg.Store == "sqlite" {
		s, err := credstore.NewSQLiteStore(cfg.StorePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	return credstore.NewJSONStore(cfg.StorePath), func() error { return nil }, nil
}

func newEngine(ctrl wifi.Controller, store credstore.Store) *trial.Engine {
	return trial.New(ctrl,
		trial.WithLogger(logger),
		trial.WithPollAttempts(cfg.PollAttempts),
		trial.WithPollInterval(cfg.PollInterval),
		trial.WithPace(cfg.Pace),
		trial.WithStore(store),
		trial.WithWorkers(cfg.Workers),
	)
}

// scanNetworks runs one scan pass on iface. An unavailable source is
// reported and yields no networks.
func scanNetworks(ctx context.Context, iface string) []wifi.Network {
	if dryRun {
		return nil
	}
	s := &wifi.Scanner{
		Platform:  hostPlatform(),
		Interface: iface,
		Timeout:   cfg.ScanTimeout,
		Stderr:    toolOutput(),
	}
	nets, err := s.Scan(ctx)
	if err != nil {
		logger.Warnf("scan: %v", err)
		return nil
	}
	return nets
}

// requestLease configures iface from DHCP.
func requestLease(ctx context.Context, iface string) error {
	// Windows leases an address as part of connecting.
	if dryRun || hostPlatform() == wifi.PlatformNetsh {
		return nil
	}
	c := dhclient.DefaultConfig()
	c.Verbose = verbose
	return dhclient.Request(ctx, iface, c, logger)
}

// printLease requests a lease when want is set and reports the result.
func printLease(ctx context.Context, iface string, want bool) {
	if !want {
		return
	}
	if err := requestLease(ctx, iface); err != nil {
		fmt.Println(colorWarn(fmt.Sprintf("dhcp on %s: %v", iface, err)))
		return
	}
	fmt.Println(colorInfo(fmt.Sprintf("%s configured via dhcp", iface)))
}

// resultLines describes the outcome of a trial sequence.
func resultLines(res trial.Result, err error) []string {
	var lines []string
	switch {
	case res.Found && res.Password == "":
		lines = append(lines, fmt.Sprintf("Connected to %s (open network).", res.SSID))
	case res.Found:
		lines = append(lines, fmt.Sprintf("Connected to %s with password %q.", res.SSID, res.Password))
	case errors.Is(err, trial.ErrNoCandidates):
		lines = append(lines, fmt.Sprintf("No candidate passwords for %s.", res.SSID))
	case errors.Is(err, context.Canceled):
		lines = append(lines, fmt.Sprintf("Stopped after %d attempts on %s.", len(res.Attempts), res.SSID))
	case err != nil:
		lines = append(lines, fmt.Sprintf("No password worked for %s: %v", res.SSID, err))
	}
	if res.StoreErr != nil {
		lines = append(lines, fmt.Sprintf("Could not record the credential: %v", res.StoreErr))
	}
	if len(res.Attempts) > 0 {
		lines = append(lines, fmt.Sprintf("%d attempts, %d resets (run %s).", len(res.Attempts), res.Resets, res.RunID))
	}
	return lines
}
