// Copyright 2020 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	ui "github.com/gizak/termui/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/u-root/wifiseek/pkg/catalog"
	"github.com/u-root/wifiseek/pkg/credstore"
	"github.com/u-root/wifiseek/pkg/menu"
	"github.com/u-root/wifiseek/pkg/trial"
	"github.com/u-root/wifiseek/pkg/wifi"
)

var menuDHCP bool

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Pick a network from an interactive list and connect to it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// The terminal belongs to the menu, so logs go to a file.
		logPath := filepath.Join(cfg.ConfigDir, "wifiseek.log")
		if l, err := fileLogger(logPath); err == nil {
			logger = l
		}

		if err := menu.Init(); err != nil {
			return fmt.Errorf("init terminal: %w", err)
		}
		defer menu.Close()

		err := runMenu(cmd.Context(), ui.PollEvents())
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	},
}

func fileLogger(path string) (*zap.SugaredLogger, error) {
	c := zap.NewProductionConfig()
	if verbose {
		c = zap.NewDevelopmentConfig()
	}
	c.OutputPaths = []string{path}
	c.ErrorOutputPaths = []string{path}
	l, err := c.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

type interfaceEntry struct {
	name string
}

func (i *interfaceEntry) Label() string {
	return i.name
}

type actionKind int

const (
	actionBack actionKind = iota
	actionOpen
	actionSaved
	actionList
	actionPrompt
)

// action is something to do with the selected network.
type action struct {
	label    string
	kind     actionKind
	password string
}

func (a *action) Label() string {
	return a.label
}

func selectInterface(ctx context.Context, uiEvents <-chan ui.Event) (string, error) {
	if cfg.Interface != "" {
		return cfg.Interface, nil
	}
	names, err := wirelessInterfaces(ctx)
	if err != nil {
		return "", err
	}
	switch len(names) {
	case 0:
		return "", fmt.Errorf("%w: no wireless interface", wifi.ErrSourceUnavailable)
	case 1:
		return names[0], nil
	}
	var entries []menu.Entry
	for _, n := range names {
		entries = append(entries, &interfaceEntry{name: n})
	}
	e, err := menu.DisplayMenu("Wireless Interfaces", "Choose an interface:", entries, uiEvents)
	if err != nil {
		return "", err
	}
	return e.Label(), nil
}

func runMenu(ctx context.Context, uiEvents <-chan ui.Event) error {
	iface, err := selectInterface(ctx, uiEvents)
	if err != nil {
		return err
	}
	ctrl, err := openController(ctx, iface)
	if err != nil {
		return err
	}
	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()
	engine := newEngine(ctrl, store)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		progress := menu.NewProgress(fmt.Sprintf("Scanning on %s", iface), false)
		cat := catalog.New(scanNetworks(ctx, iface))
		progress.Close()

		ssid, err := menu.SelectNetwork(cat, uiEvents)
		if errors.Is(err, catalog.ErrRescan) {
			continue
		}
		if err != nil {
			return err
		}

		act, err := chooseAction(ssid, cat, store, uiEvents)
		if err != nil {
			return err
		}
		if act == nil {
			continue
		}

		progress = menu.NewProgress(fmt.Sprintf("Connecting to %s", ssid), true)
		res, err := runAction(ctx, engine, ssid, act)
		progress.Close()

		lines := resultLines(res, err)
		if res.Found && menuDHCP {
			if err := requestLease(ctx, iface); err != nil {
				lines = append(lines, fmt.Sprintf("DHCP on %s failed: %v", iface, err))
			} else {
				lines = append(lines, fmt.Sprintf("%s configured via DHCP.", iface))
			}
		}
		if _, err := menu.DisplayResult(lines, uiEvents); err != nil {
			return err
		}
	}
}

// networkActions lists what can be done with ssid.
func networkActions(ssid string, cat *catalog.Catalog, saved map[string]credstore.Entry) []menu.Entry {
	if n, ok := cat.Lookup(ssid); ok && n.Open() {
		return []menu.Entry{&action{label: "Connect", kind: actionOpen}, &action{label: "Back", kind: actionBack}}
	}
	var entries []menu.Entry
	if e, ok := saved[ssid]; ok {
		entries = append(entries, &action{label: "Use the saved password", kind: actionSaved, password: e.Password})
	}
	return append(entries,
		&action{label: fmt.Sprintf("Try the password list %s", cfg.PasswordFile), kind: actionList},
		&action{label: "Enter a password", kind: actionPrompt},
		&action{label: "Back", kind: actionBack},
	)
}

// chooseAction asks what to do with ssid. A nil action means go back to
// the network list.
func chooseAction(ssid string, cat *catalog.Catalog, store credstore.Store, uiEvents <-chan ui.Event) (*action, error) {
	saved, err := store.Load(context.Background())
	if err != nil {
		logger.Warnf("saved credentials: %v", err)
	}
	e, err := menu.DisplayMenu(ssid, "Choose an option:", networkActions(ssid, cat, saved), uiEvents)
	if err != nil {
		return nil, err
	}
	a := e.(*action)
	switch a.kind {
	case actionBack:
		return nil, nil
	case actionPrompt:
		pw, err := menu.NewInputWindow("Enter password:", menu.AlwaysValid, uiEvents)
		if err != nil {
			return nil, err
		}
		if pw == "<Esc>" {
			return nil, nil
		}
		a.password = pw
	}
	return a, nil
}

func runAction(ctx context.Context, engine *trial.Engine, ssid string, a *action) (trial.Result, error) {
	switch a.kind {
	case actionOpen:
		return engine.TryOne(ctx, ssid, "", true)
	case actionList:
		pws, err := trial.LoadPasswords(cfg.PasswordFile)
		if err != nil {
			return trial.Result{SSID: ssid}, err
		}
		return engine.Run(ctx, ssid, pws, false)
	}
	return engine.TryOne(ctx, ssid, a.password, false)
}

func init() {
	menuCmd.Flags().BoolVar(&menuDHCP, "dhcp", false, "request a dhcp lease once associated")
}
