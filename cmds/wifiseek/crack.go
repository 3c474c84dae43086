// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/u-root/wifiseek/pkg/catalog"
	"github.com/u-root/wifiseek/pkg/trial"
)

var (
	crackOpen    bool
	crackDHCP    bool
	passwordFile string
)

var crackCmd = &cobra.Command{
	Use:   "crack SSID|NUMBER",
	Short: "Try every password of the password file against a network until one connects",
	Long: `Try every password of the password file against a network until one connects.

NUMBER refers to the listing printed by "wifiseek scan"; anything else is
taken as the network name. Only use this on networks you are allowed to access.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		iface, err := resolveInterface(ctx)
		if err != nil {
			return err
		}

		cat := catalog.New(scanNetworks(ctx, iface))
		ssid, err := resolveTarget(os.Stdout, cat, args[0])
		if err != nil {
			return err
		}
		open := crackOpen
		if n, ok := cat.Lookup(ssid); ok && n.Open() {
			open = true
		}

		var passwords []string
		if !open {
			path := cfg.PasswordFile
			if passwordFile != "" {
				path = passwordFile
			}
			if passwords, err = trial.LoadPasswords(path); err != nil {
				return fmt.Errorf("password file: %w", err)
			}
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

		fmt.Println(colorInfo(fmt.Sprintf("Trying %d candidates against %s on %s", max(len(passwords), 1), ssid, iface)))
		res, err := newEngine(ctrl, store).Run(ctx, ssid, passwords, open)
		for _, l := range resultLines(res, err) {
			if res.Found {
				fmt.Println(colorSuccess(l))
			} else {
				fmt.Println(colorWarn(l))
			}
		}
		if !res.Found {
			return err
		}
		printLease(ctx, iface, crackDHCP)
		return nil
	},
}

// resolveTarget turns the crack argument into an SSID. A number indexes a
// scan taken just now, which can be ordered differently from the one the
// operator read, so the listing and the pick are printed first.
func resolveTarget(w io.Writer, cat *catalog.Catalog, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	isIndex := arg != "" && strings.TrimLeft(arg, "0123456789") == ""
	if isIndex {
		if err := printNetworks(w, cat); err != nil {
			return "", err
		}
	}
	ssid, err := cat.Resolve(arg)
	switch {
	case errors.Is(err, catalog.ErrRescan):
		return "", fmt.Errorf("0 is reserved for rescanning, give a network number or name")
	case err != nil:
		return "", err
	}
	if isIndex {
		fmt.Fprintln(w, colorInfo(fmt.Sprintf("Selected %s: %s", arg, ssid)))
	}
	return ssid, nil
}

func init() {
	crackCmd.Flags().BoolVar(&crackOpen, "open", false, "the network needs no password")
	crackCmd.Flags().BoolVar(&crackDHCP, "dhcp", false, "request a dhcp lease once associated")
	crackCmd.Flags().StringVarP(&passwordFile, "password-file", "p", "", "candidate list, one per line (default <config_dir>/password.txt)")
	crackCmd.Flags().Int("workers", 1, "requested concurrency; attempts always run one at a time")
	_ = v.BindPFlag("workers", crackCmd.Flags().Lookup("workers"))
}
