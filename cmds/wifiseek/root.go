// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
	verbose bool
	dryRun  bool

	v      = viper.New()
	cfg    *Config
	logger = zap.NewNop().Sugar()
)

var rootCmd = &cobra.Command{
	Use:          "wifiseek",
	Short:        "Scan wireless networks and recover a forgotten passphrase of your own network",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(v, cfgFile)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(c.ConfigDir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		cfg = c
		logger = newLogger(verbose)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func newLogger(verbose bool) *zap.SugaredLogger {
	build := zap.NewProduction
	if verbose {
		build = zap.NewDevelopment
	}
	l, err := build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

// Execute runs the root command. An interrupt stops a trial sequence
// before its next attempt.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, colorError(err))
		stop()
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.wifiseek.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "development logging")
	pf.BoolVar(&dryRun, "dry-run", false, "use an in-memory interface that never associates")
	pf.StringP("interface", "i", "", "wireless interface (default: first one found)")
	pf.String("store", "json", "credential store: json or sqlite")
	_ = v.BindPFlag("interface", pf.Lookup("interface"))
	_ = v.BindPFlag("store", pf.Lookup("store"))

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(crackCmd)
	rootCmd.AddCommand(savedCmd)
	rootCmd.AddCommand(menuCmd)
}
