// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wifi

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/vishvananda/netlink"
	"golang.org/x/crypto/pbkdf2"
)

const (
	confHeader = "ctrl_interface=/var/run/wpa_supplicant\nupdate_config=1\n\n"

	nopassphrase = `network={
	ssid=%s
	key_mgmt=NONE
}
`
	wpa2psk = `network={
	ssid=%s
	key_mgmt=WPA-PSK
	proto=RSN
	pairwise=CCMP
	psk=%s
}
`
)

var (
	// RegEx for parsing iwlist output
	cellRE     = regexp.MustCompile(`(?m)^\s*Cell\s+\d+`)
	essidRE    = regexp.MustCompile(`ESSID:"([^"]*)"`)
	signalRE   = regexp.MustCompile(`Signal level[=:]\s*(-?\d+)(?:/(\d+))?`)
	qualityRE  = regexp.MustCompile(`Quality[=:]\s*(\d+)/(\d+)`)
	encKeyOnRE = regexp.MustCompile(`Encryption key:\s*on`)
)

// IWListParser parses scan text produced by `iwlist <if> scan`.
type IWListParser struct{}

var _ = Parser(IWListParser{})

// Parse implements Parser.
func (IWListParser) Parse(raw []byte) []Network {
	o := DecodeUTF8(raw)
	cells := cellRE.FindAllStringIndex(o, -1)
	if cells == nil {
		return nil
	}

	var res []Network
	for i := range cells {
		start, end := cells[i][0], len(o)
		if i != len(cells)-1 {
			end = cells[i+1][0]
		}
		if n, ok := parseCell(o[start:end]); ok {
			res = append(res, n)
		}
	}
	return res
}

func parseCell(cell string) (Network, bool) {
	m := essidRE.FindStringSubmatch(cell)
	if m == nil || m[1] == "" {
		return Network{}, false
	}
	n := Network{SSID: m[1], Signal: cellSignal(cell)}

	switch {
	case !encKeyOnRE.MatchString(cell):
		n.Auth, n.Encryption = AuthOpen, EncNone
	case strings.Contains(cell, "WPA"):
		n.Auth, n.Encryption = AuthWPA, EncCCMP
	case strings.Contains(cell, "WEP"):
		n.Auth, n.Encryption = AuthWEP, EncWEP
	default:
		n.Auth, n.Encryption = AuthUnknown, EncUnknown
	}
	return n, true
}

func cellSignal(cell string) int {
	if m := signalRE.FindStringSubmatch(cell); m != nil {
		v, err := strconv.Atoi(m[1])
		if err != nil {
			return 0
		}
		// Some drivers report a ratio rather than dBm.
		if m[2] != "" {
			return ratioPercent(v, m[2])
		}
		if v <= 0 {
			return DBMToPercent(v)
		}
	}
	if m := qualityRE.FindStringSubmatch(cell); m != nil {
		v, _ := strconv.Atoi(m[1])
		return ratioPercent(v, m[2])
	}
	return 0
}

func ratioPercent(v int, max string) int {
	d, err := strconv.Atoi(max)
	if err != nil || d <= 0 {
		return 0
	}
	return clampPercent(int(math.Round(float64(v) * 100 / float64(d))))
}

// IWLController implements Controller with wpa_supplicant and the wireless tools.
type IWLController struct {
	Interface string
	// ConfDir holds the generated wpa_supplicant configurations.
	ConfDir string
	// SysfsNet is where network devices are listed, /sys/class/net by default.
	SysfsNet string
	Run      CommandRunner
	Stdout   io.Writer
	Stderr   io.Writer

	mu       sync.Mutex
	profiles map[ProfileHandle]string
	ssid     string
}

var _ = Controller(&IWLController{})

// NewIWLController brings iface up and returns a controller for it.
func NewIWLController(ctx context.Context, stdout, stderr io.Writer, iface string) (*IWLController, error) {
	w := &IWLController{
		Interface: iface,
		ConfDir:   os.TempDir(),
		Run:       ExecRunner,
		Stdout:    stdout,
		Stderr:    stderr,
	}
	if err := w.Run(ctx, stdout, stderr, "ip", "link", "set", "dev", iface, "up"); err != nil {
		return nil, err
	}
	return w, nil
}

// Interfaces lists the wireless links known to netlink.
func (w *IWLController) Interfaces(ctx context.Context) ([]string, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, l := range links {
		if name := l.Attrs().Name; isWireless(w.sysfsNet(), name) {
			names = append(names, name)
		}
	}
	return names, nil
}

func (w *IWLController) sysfsNet() string {
	if w.SysfsNet == "" {
		return "/sys/class/net"
	}
	return w.SysfsNet
}

func isWireless(sysfsNet, ifname string) bool {
	if _, err := os.Stat(filepath.Join(sysfsNet, ifname, "wireless")); err != nil {
		return false
	}
	return true
}

// ConfigureProfile writes a wpa_supplicant configuration for p.
func (w *IWLController) ConfigureProfile(ctx context.Context, p Profile) (ProfileHandle, error) {
	conf, err := generateConfig(p)
	if err != nil {
		return "", err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.profiles == nil {
		w.profiles = make(map[ProfileHandle]string)
	}
	h := ProfileHandle(fmt.Sprintf("%s-%d", w.Interface, len(w.profiles)))
	path := filepath.Join(w.ConfDir, fmt.Sprintf("wifiseek-%s.conf", h))
	if err := os.WriteFile(path, conf, 0600); err != nil {
		return "", fmt.Errorf("%s: %v", path, err)
	}
	w.profiles[h] = path
	w.ssid = p.SSID
	return h, nil
}

// Connect starts wpa_supplicant in the background with the profile's configuration.
func (w *IWLController) Connect(ctx context.Context, h ProfileHandle) error {
	w.mu.Lock()
	path, ok := w.profiles[h]
	w.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown profile %q", h)
	}
	return w.Run(ctx, w.Stdout, w.Stderr, "wpa_supplicant", "-B", "-i"+w.Interface, "-c"+path)
}

// Disconnect stops the supplicant serving the interface.
func (w *IWLController) Disconnect(ctx context.Context) error {
	return w.Run(ctx, w.Stdout, w.Stderr, "wpa_cli", "-i", w.Interface, "terminate")
}

// RemoveAllProfiles deletes every configuration written by this controller.
func (w *IWLController) RemoveAllProfiles(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var firstErr error
	for h, path := range w.profiles {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
		delete(w.profiles, h)
	}
	w.ssid = ""
	return firstErr
}

// Status reports whether the supplicant finished authenticating with the
// configured SSID. The kernel reports the ESSID as soon as the access
// point accepts the association, before the key handshake can reject the
// passphrase, so only wpa_state=COMPLETED counts. When the ESSID can be
// read it must agree.
func (w *IWLController) Status(ctx context.Context) (Status, error) {
	w.mu.Lock()
	want := w.ssid
	w.mu.Unlock()
	if want == "" {
		return StatusDisconnected, nil
	}

	st, err := w.supplicantStatus(ctx)
	if err != nil {
		return StatusDisconnected, err
	}
	if st["wpa_state"] != "COMPLETED" || unescapeSSID(st["ssid"]) != want {
		return StatusDisconnected, nil
	}

	id, err := nativeESSID(w.Interface)
	if err != nil {
		id, err = w.getID(ctx)
	}
	if err == nil && id != want {
		return StatusDisconnected, nil
	}
	return StatusConnected, nil
}

// supplicantStatus returns the key=value lines of `wpa_cli status`.
func (w *IWLController) supplicantStatus(ctx context.Context) (map[string]string, error) {
	var execOutput bytes.Buffer
	if err := w.Run(ctx, &execOutput, w.Stderr, "wpa_cli", "-i", w.Interface, "status"); err != nil {
		return nil, err
	}
	st := make(map[string]string)
	for _, line := range strings.Split(execOutput.String(), "\n") {
		if k, v, ok := strings.Cut(strings.TrimRight(line, "\r"), "="); ok {
			st[k] = v
		}
	}
	return st, nil
}

// unescapeSSID undoes the escaping wpa_cli applies to non-printable SSID bytes.
func unescapeSSID(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b []byte
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b = append(b, s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b = append(b, '\n')
		case 'r':
			b = append(b, '\r')
		case 't':
			b = append(b, '\t')
		case 'e':
			b = append(b, 0x1b)
		case 'x':
			if i+2 < len(s) {
				if v, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
					b = append(b, byte(v))
					i += 2
					continue
				}
			}
			b = append(b, '\\', 'x')
		default:
			b = append(b, s[i])
		}
	}
	return string(b)
}

func (w *IWLController) getID(ctx context.Context) (string, error) {
	var execOutput bytes.Buffer
	if err := w.Run(ctx, &execOutput, w.Stderr, "iwgetid", "-r", w.Interface); err != nil {
		return "", err
	}
	return strings.Trim(execOutput.String(), " \n"), nil
}

func generateConfig(p Profile) ([]byte, error) {
	if p.SSID == "" {
		return nil, fmt.Errorf("profile has no ssid")
	}
	if p.Open {
		return []byte(confHeader + fmt.Sprintf(nopassphrase, ssidField(p.SSID))), nil
	}
	if p.Scheme != SchemeWPA2PSK {
		return nil, fmt.Errorf("essid: %v: unsupported scheme %q", p.SSID, p.Scheme)
	}
	if n := len(p.Password); n < 8 || n > 63 {
		return nil, fmt.Errorf("essid: %v: passphrase must be 8..63 characters, got %d", p.SSID, n)
	}
	psk := pbkdf2.Key([]byte(p.Password), []byte(p.SSID), 4096, 32, sha1.New)
	return []byte(confHeader + fmt.Sprintf(wpa2psk, ssidField(p.SSID), hex.EncodeToString(psk))), nil
}

// ssidField quotes ssid for a network block, falling back to the hex form
// for names the quoted form cannot carry.
func ssidField(ssid string) string {
	if strings.ContainsAny(ssid, "\"\\\n\r") {
		return hex.EncodeToString([]byte(ssid))
	}
	return `"` + ssid + `"`
}
