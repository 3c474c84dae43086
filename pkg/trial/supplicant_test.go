// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trial

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"

	"github.com/u-root/wifiseek/pkg/credstore"
	"github.com/u-root/wifiseek/pkg/wifi"
)

// supplicant stands in for wpa_supplicant and the wireless tools on one
// interface. Only one supplicant may run at a time. Any passphrase gets
// the interface associated, but only the right one completes the handshake.
type supplicant struct {
	ssid    string
	psk     string
	running bool
	current string
	authed  bool
}

func newSupplicant(ssid, passphrase string) *supplicant {
	psk := pbkdf2.Key([]byte(passphrase), []byte(ssid), 4096, 32, sha1.New)
	return &supplicant{ssid: ssid, psk: hex.EncodeToString(psk)}
}

func (s *supplicant) run(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) error {
	switch name {
	case "wpa_supplicant":
		if s.running {
			return errors.New("ctrl_iface exists and seems to be in use")
		}
		for _, a := range args {
			if path, ok := strings.CutPrefix(a, "-c"); ok {
				conf, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				s.running = true
				s.current = ""
				if strings.Contains(string(conf), fmt.Sprintf("ssid=%q", s.ssid)) {
					s.current = s.ssid
				}
				s.authed = s.current != "" && strings.Contains(string(conf), "psk="+s.psk)
			}
		}
		return nil
	case "wpa_cli":
		switch args[len(args)-1] {
		case "terminate":
			if !s.running {
				return errors.New("failed to connect to wpa_supplicant")
			}
			s.running, s.current, s.authed = false, "", false
		case "status":
			switch {
			case !s.running:
				return errors.New("failed to connect to wpa_supplicant")
			case s.authed:
				fmt.Fprintf(stdout, "ssid=%s\nwpa_state=COMPLETED\n", s.current)
			case s.current != "":
				fmt.Fprintf(stdout, "ssid=%s\nwpa_state=4WAY_HANDSHAKE\n", s.current)
			default:
				fmt.Fprint(stdout, "wpa_state=SCANNING\n")
			}
		}
		return nil
	case "iwgetid":
		if s.current == "" {
			return errors.New("exit status 255")
		}
		fmt.Fprintln(stdout, s.current)
		return nil
	}
	return fmt.Errorf("unexpected command %s", name)
}

func newSupplicantController(t *testing.T, s *supplicant) *wifi.IWLController {
	return &wifi.IWLController{
		Interface: "wfsk-none0",
		ConfDir:   t.TempDir(),
		Run:       s.run,
		Stdout:    io.Discard,
		Stderr:    io.Discard,
	}
}

func TestRunWithSupplicantAlreadyRunning(t *testing.T) {
	s := newSupplicant("B", "correct-pass")
	// A supplicant from an earlier session still holds the interface.
	s.running, s.current, s.authed = true, "A", true
	e := newEngine(t, newSupplicantController(t, s), newFakeClock())

	res, err := e.Run(context.Background(), "B", []string{"correct-pass"}, false)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, "correct-pass", res.Password)
	require.Len(t, res.Attempts, 1)
}

func TestRunWithSupplicantWrongPassphraseAssociates(t *testing.T) {
	s := newSupplicant("B", "correct-pass")
	store := credstore.NewJSONStore(filepath.Join(t.TempDir(), "successful_connections.json"))
	e := newEngine(t, newSupplicantController(t, s), newFakeClock(), WithStore(store))

	res, err := e.Run(context.Background(), "B", []string{"wrong-pass", "correct-pass"}, false)
	require.NoError(t, err)
	assert.Equal(t, "correct-pass", res.Password)
	require.Len(t, res.Attempts, 2)
	assert.ErrorIs(t, res.Attempts[0].Err, ErrPollTimeout)
	assert.Equal(t, 1, res.Resets)

	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "correct-pass", saved["B"].Password)
}

func TestRunWithSupplicantOnlyWrongPassphrases(t *testing.T) {
	s := newSupplicant("B", "correct-pass")
	store := credstore.NewJSONStore(filepath.Join(t.TempDir(), "successful_connections.json"))
	e := newEngine(t, newSupplicantController(t, s), newFakeClock(), WithStore(store))

	res, err := e.Run(context.Background(), "B", []string{"wrong-pass", "also-wrong"}, false)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.False(t, res.Found)
	assert.False(t, s.running)

	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, saved)
}
