// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wifi

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
)

// profilePrefix keeps generated profiles apart from the ones the user saved.
const profilePrefix = "wifiseek-"

var (
	// RegEx for parsing `netsh wlan show interfaces`, English and
	// Simplified Chinese consoles.
	netshNameRE    = regexp.MustCompile(`^\s*(?:Name|名称)\s*:\s*(.*?)\s*$`)
	netshStateRE   = regexp.MustCompile(`^\s*(?:State|状态)\s*:\s*(.*?)\s*$`)
	netshIfSSIDRE  = regexp.MustCompile(`^\s*SSID\s*:\s*(.*?)\s*$`)
	netshProfileRE = regexp.MustCompile(`^\s*(?:Profile|配置文件)\s*:\s*(.*?)\s*$`)
)

// NetshController implements Controller with `netsh wlan`.
type NetshController struct {
	// Interface is the connection name netsh shows, e.g. "Wi-Fi". Empty
	// lets netsh pick when the host has a single wireless interface.
	Interface string
	// ConfDir receives profile XML until netsh has imported it.
	ConfDir string
	Run     CommandRunner
	Stdout  io.Writer
	Stderr  io.Writer

	mu       sync.Mutex
	profiles map[ProfileHandle]string
	ssid     string
	name     string
}

var _ = Controller(&NetshController{})

// NewNetshController returns a controller for iface.
func NewNetshController(stdout, stderr io.Writer, iface string) *NetshController {
	return &NetshController{
		Interface: iface,
		ConfDir:   os.TempDir(),
		Run:       ExecRunner,
		Stdout:    stdout,
		Stderr:    stderr,
	}
}

// netshInterface is one block of `netsh wlan show interfaces`.
type netshInterface struct {
	Name    string
	State   string
	SSID    string
	Profile string
}

func (i netshInterface) connected() bool {
	switch strings.ToLower(i.State) {
	case "connected", "已连接":
		return true
	}
	return false
}

func parseNetshInterfaces(raw []byte) []netshInterface {
	var (
		res []netshInterface
		cur *netshInterface
	)
	for _, line := range strings.Split(DecodeNetsh(raw), "\n") {
		if m := netshNameRE.FindStringSubmatch(line); m != nil {
			if cur != nil {
				res = append(res, *cur)
			}
			cur = &netshInterface{Name: m[1]}
			continue
		}
		if cur == nil {
			continue
		}
		switch {
		case netshStateRE.MatchString(line):
			cur.State = netshStateRE.FindStringSubmatch(line)[1]
		case netshIfSSIDRE.MatchString(line):
			cur.SSID = netshIfSSIDRE.FindStringSubmatch(line)[1]
		case netshProfileRE.MatchString(line):
			cur.Profile = netshProfileRE.FindStringSubmatch(line)[1]
		}
	}
	if cur != nil {
		res = append(res, *cur)
	}
	return res
}

func (w *NetshController) showInterfaces(ctx context.Context) ([]netshInterface, error) {
	var execOutput bytes.Buffer
	if err := w.Run(ctx, &execOutput, w.Stderr, "netsh", "wlan", "show", "interfaces"); err != nil {
		return nil, err
	}
	return parseNetshInterfaces(execOutput.Bytes()), nil
}

// ifArg names the interface for netsh commands that accept one.
func (w *NetshController) ifArg(args ...string) []string {
	if w.Interface == "" {
		return args
	}
	return append(args, "interface="+w.Interface)
}

// Interfaces lists the wireless interfaces netsh knows about.
func (w *NetshController) Interfaces(ctx context.Context) ([]string, error) {
	ifs, err := w.showInterfaces(ctx)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, i := range ifs {
		names = append(names, i.Name)
	}
	return names, nil
}

// ConfigureProfile imports a WLAN profile for p.
func (w *NetshController) ConfigureProfile(ctx context.Context, p Profile) (ProfileHandle, error) {
	name := profilePrefix + p.SSID
	doc, err := generateProfileXML(name, p)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(w.ConfDir, "wifiseek-*.xml")
	if err != nil {
		return "", err
	}
	path := f.Name()
	// The file carries the passphrase in clear text.
	defer os.Remove(path)
	if _, err := f.Write(doc); err != nil {
		f.Close()
		return "", fmt.Errorf("%s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%s: %v", path, err)
	}

	if err := w.Run(ctx, w.Stdout, w.Stderr, "netsh", w.ifArg("wlan", "add", "profile", "filename="+path)...); err != nil {
		return "", fmt.Errorf("add profile %q: %w", name, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.profiles == nil {
		w.profiles = make(map[ProfileHandle]string)
	}
	h := ProfileHandle(name)
	w.profiles[h] = p.SSID
	w.ssid, w.name = p.SSID, name
	return h, nil
}

// Connect asks the WLAN service to connect with the profile.
func (w *NetshController) Connect(ctx context.Context, h ProfileHandle) error {
	w.mu.Lock()
	ssid, ok := w.profiles[h]
	w.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown profile %q", h)
	}
	return w.Run(ctx, w.Stdout, w.Stderr, "netsh", w.ifArg("wlan", "connect", "name="+string(h), "ssid="+ssid)...)
}

// Disconnect drops the interface's current association.
func (w *NetshController) Disconnect(ctx context.Context) error {
	return w.Run(ctx, w.Stdout, w.Stderr, "netsh", w.ifArg("wlan", "disconnect")...)
}

// RemoveAllProfiles deletes every profile imported by this controller.
// Profiles the user saved are left alone.
func (w *NetshController) RemoveAllProfiles(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var firstErr error
	for h := range w.profiles {
		if err := w.Run(ctx, w.Stdout, w.Stderr, "netsh", w.ifArg("wlan", "delete", "profile", "name="+string(h))...); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("delete profile %q: %w", h, err)
		}
		delete(w.profiles, h)
	}
	w.ssid, w.name = "", ""
	return firstErr
}

// Status reports whether the interface is connected to the configured SSID
// through the profile this controller imported. netsh only reports
// "connected" once authentication has finished.
func (w *NetshController) Status(ctx context.Context) (Status, error) {
	w.mu.Lock()
	want, name := w.ssid, w.name
	w.mu.Unlock()
	if want == "" {
		return StatusDisconnected, nil
	}

	ifs, err := w.showInterfaces(ctx)
	if err != nil {
		return StatusDisconnected, err
	}
	for _, i := range ifs {
		if w.Interface != "" && i.Name != w.Interface {
			continue
		}
		if i.connected() && i.SSID == want && (i.Profile == "" || i.Profile == name) {
			return StatusConnected, nil
		}
		return StatusDisconnected, nil
	}
	return StatusDisconnected, fmt.Errorf("interface %q not listed by netsh", w.Interface)
}

// wlanProfile is the subset of the WLAN profile schema netsh needs for a
// personal network.
type wlanProfile struct {
	XMLName        xml.Name `xml:"http://www.microsoft.com/networking/WLAN/profile/v1 WLANProfile"`
	Name           string   `xml:"name"`
	SSIDHex        string   `xml:"SSIDConfig>SSID>hex"`
	SSIDName       string   `xml:"SSIDConfig>SSID>name"`
	ConnectionType string   `xml:"connectionType"`
	ConnectionMode string   `xml:"connectionMode"`
	Security       struct {
		Authentication string     `xml:"authEncryption>authentication"`
		Encryption     string     `xml:"authEncryption>encryption"`
		UseOneX        bool       `xml:"authEncryption>useOneX"`
		SharedKey      *sharedKey `xml:"sharedKey,omitempty"`
	} `xml:"MSM>security"`
}

type sharedKey struct {
	KeyType     string `xml:"keyType"`
	Protected   bool   `xml:"protected"`
	KeyMaterial string `xml:"keyMaterial"`
}

func generateProfileXML(name string, p Profile) ([]byte, error) {
	if p.SSID == "" {
		return nil, fmt.Errorf("profile has no ssid")
	}
	doc := wlanProfile{
		Name:           name,
		SSIDHex:        strings.ToUpper(hex.EncodeToString([]byte(p.SSID))),
		SSIDName:       p.SSID,
		ConnectionType: "ESS",
		ConnectionMode: "manual",
	}
	switch {
	case p.Open:
		doc.Security.Authentication, doc.Security.Encryption = "open", "none"
	case p.Scheme != SchemeWPA2PSK:
		return nil, fmt.Errorf("essid: %v: unsupported scheme %q", p.SSID, p.Scheme)
	default:
		if n := len(p.Password); n < 8 || n > 63 {
			return nil, fmt.Errorf("essid: %v: passphrase must be 8..63 characters, got %d", p.SSID, n)
		}
		doc.Security.Authentication, doc.Security.Encryption = "WPA2PSK", "AES"
		doc.Security.SharedKey = &sharedKey{KeyType: "passPhrase", KeyMaterial: p.Password}
	}

	out, err := xml.MarshalIndent(doc, "", "\t")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
