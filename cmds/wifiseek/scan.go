// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/u-root/wifiseek/pkg/catalog"
	"github.com/u-root/wifiseek/pkg/wifi"
)

var (
	scanFile     string
	scanPlatform string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List nearby networks, strongest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var nets []wifi.Network
		if scanFile != "" {
			var err error
			if nets, err = parseScanFile(scanFile, scanPlatform); err != nil {
				return err
			}
		} else {
			iface, err := resolveInterface(cmd.Context())
			if err != nil {
				logger.Warnf("scan: %v", err)
			}
			nets = scanNetworks(cmd.Context(), iface)
		}
		return printNetworks(cmd.OutOrStdout(), catalog.New(nets))
	},
}

func parsePlatform(s string) (wifi.Platform, error) {
	switch s {
	case "":
		return hostPlatform(), nil
	case "netsh":
		return wifi.PlatformNetsh, nil
	case "iwlist":
		return wifi.PlatformIWList, nil
	}
	return wifi.PlatformUnknown, fmt.Errorf("unknown platform %q (want netsh or iwlist)", s)
}

// parseScanFile parses scan text saved from an earlier run.
func parseScanFile(path, platform string) ([]wifi.Network, error) {
	p, err := parsePlatform(platform)
	if err != nil {
		return nil, err
	}
	parser, err := wifi.NewParser(p)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parser.Parse(raw), nil
}

func printNetworks(w io.Writer, c *catalog.Catalog) error {
	if c.Len() == 0 {
		fmt.Fprintln(w, colorWarn("No networks found."))
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.Header("#", "SSID", "Signal", "Authentication", "Encryption")
	for i, n := range c.Networks() {
		if err := table.Append([]string{
			strconv.Itoa(i + 1),
			n.SSID,
			formatSignal(n.Signal),
			n.Auth,
			n.Encryption,
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

func init() {
	scanCmd.Flags().StringVarP(&scanFile, "file", "f", "", "parse saved scan text instead of scanning")
	scanCmd.Flags().StringVar(&scanPlatform, "platform", "", "format of --file: netsh or iwlist (default: this host's)")
}
