// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wifi

import (
	"context"
	"errors"
)

// Authentication and encryption labels produced by the parsers.
const (
	AuthOpen    = "Open"
	AuthWEP     = "WEP"
	AuthWPA     = "WPA/WPA2"
	AuthUnknown = "Unknown"

	EncNone    = "None"
	EncWEP     = "WEP"
	EncCCMP    = "CCMP/AES"
	EncUnknown = "Unknown"
)

// ErrSourceUnavailable is returned when no raw scan text could be obtained,
// e.g. there is no wireless interface or the scan command timed out.
var ErrSourceUnavailable = errors.New("scan source unavailable")

// Network is one network observed in a single scan pass.
type Network struct {
	SSID       string
	Signal     int // percent, 0-100
	Auth       string
	Encryption string
}

// Open reports whether the network advertises no authentication.
func (n Network) Open() bool {
	return n.Auth == AuthOpen
}

// Platform selects the shape of raw scan text and the way an interface is driven.
type Platform int

const (
	PlatformUnknown Platform = iota
	// PlatformNetsh is the output of `netsh wlan show networks mode=bssid`.
	PlatformNetsh
	// PlatformIWList is the output of `iwlist <if> scan`.
	PlatformIWList
)

func (p Platform) String() string {
	switch p {
	case PlatformNetsh:
		return "netsh"
	case PlatformIWList:
		return "iwlist"
	}
	return "unknown"
}

// DetectPlatform maps a GOOS value to the platform whose tools produce scan text there.
func DetectPlatform(goos string) Platform {
	switch goos {
	case "windows":
		return PlatformNetsh
	case "linux", "android":
		return PlatformIWList
	}
	return PlatformUnknown
}

// Status is what an interface reports about its association.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnected
)

func (s Status) String() string {
	if s == StatusConnected {
		return "connected"
	}
	return "not-connected"
}

// Scheme is the security scheme bound to a profile.
type Scheme string

const (
	SchemeNone    Scheme = "NONE"
	SchemeWPA2PSK Scheme = "WPA2-PSK"
)

// Profile is a connection configuration for one SSID.
type Profile struct {
	SSID     string
	Password string
	Open     bool
	Scheme   Scheme
	Cipher   string
}

// NewProfile builds a profile for ssid. Secured networks always use
// WPA2-PSK with CCMP; open networks carry no credential.
func NewProfile(ssid, password string, open bool) Profile {
	if open {
		return Profile{SSID: ssid, Open: true, Scheme: SchemeNone}
	}
	return Profile{SSID: ssid, Password: password, Scheme: SchemeWPA2PSK, Cipher: "CCMP"}
}

// ProfileHandle names a profile installed on an interface.
type ProfileHandle string

// Controller drives one wireless interface. Every method may fail; callers
// treat a failure as the failure of the current connection attempt only.
type Controller interface {
	Interfaces(ctx context.Context) ([]string, error)
	ConfigureProfile(ctx context.Context, p Profile) (ProfileHandle, error)
	Connect(ctx context.Context, h ProfileHandle) error
	Disconnect(ctx context.Context) error
	RemoveAllProfiles(ctx context.Context) error
	Status(ctx context.Context) (Status, error)
}
