// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var connectDHCP bool

var connectCmd = &cobra.Command{
	Use:   "connect SSID [PASSWORD]",
	Short: "Make one connection attempt; without a password the network is treated as open",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ssid := args[0]
		password, open := "", len(args) == 1

		if len(args) == 2 {
			password = args[1]
		}

		iface, err := resolveInterface(ctx)
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

		res, err := newEngine(ctrl, store).TryOne(ctx, ssid, password, open)
		for _, l := range resultLines(res, err) {
			if res.Found {
				fmt.Println(colorSuccess(l))
			} else {
				fmt.Println(l)
			}
		}
		if !res.Found {
			return err
		}
		printLease(ctx, iface, connectDHCP)
		return nil
	},
}

func init() {
	connectCmd.Flags().BoolVar(&connectDHCP, "dhcp", false, "request a dhcp lease once associated")
}
