// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/u-root/wifiseek/pkg/credstore"
)

var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "Show the credentials that connected successfully",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		entries, err := credstore.List(cmd.Context(), store)
		if err != nil {
			return err
		}
		return printEntries(cmd.OutOrStdout(), entries)
	},
}

func printEntries(w io.Writer, entries []credstore.Entry) error {
	if len(entries) == 0 {
		fmt.Fprintln(w, colorWarn("No saved credentials."))
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.Header("SSID", "Password", "Last connected")
	for _, e := range entries {
		if err := table.Append([]string{e.SSID, e.Password, e.LastConnected.Format(credstore.TimeLayout)}); err != nil {
			return err
		}
	}
	return table.Render()
}
