// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wifi

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// RegEx for parsing `netsh wlan show networks mode=bssid`, English and
	// Simplified Chinese consoles.
	netshSSIDRE   = regexp.MustCompile(`^\s*SSID \d+\s*:\s*(.*?)\s*$`)
	netshSignalRE = regexp.MustCompile(`^\s*(?:Signal|信号)\s*:\s*(\d+)\s*%`)
	netshAuthRE   = regexp.MustCompile(`^\s*(?:Authentication|身份验证)\s*:\s*(.*?)\s*$`)
	netshEncRE    = regexp.MustCompile(`^\s*(?:Encryption|Cipher|加密)\s*:\s*(.*?)\s*$`)
)

// NetshParser parses scan text produced by netsh.
type NetshParser struct{}

var _ = Parser(NetshParser{})

/*
 * Assumptions:
 *	1) Every network starts with an "SSID <n> : <name>" line
 *	2) Signal is reported per BSSID; the strongest BSSID wins
 *	3) Authentication and encryption appear once per network
 */

// Parse implements Parser.
func (NetshParser) Parse(raw []byte) []Network {
	var (
		res []Network
		cur *Network
	)
	flush := func() {
		if cur != nil && cur.SSID != "" {
			res = append(res, *cur)
		}
		cur = nil
	}

	for _, line := range strings.Split(DecodeNetsh(raw), "\n") {
		if m := netshSSIDRE.FindStringSubmatch(line); m != nil {
			flush()
			cur = &Network{SSID: strings.Trim(m[1], `"`)}
			continue
		}
		if cur == nil {
			continue
		}
		if m := netshSignalRE.FindStringSubmatch(line); m != nil {
			if v, err := strconv.Atoi(m[1]); err == nil && clampPercent(v) > cur.Signal {
				cur.Signal = clampPercent(v)
			}
			continue
		}
		if m := netshAuthRE.FindStringSubmatch(line); m != nil {
			cur.Auth = netshAuth(m[1])
			continue
		}
		if m := netshEncRE.FindStringSubmatch(line); m != nil {
			cur.Encryption = netshEnc(m[1])
		}
	}
	flush()
	return res
}

func netshAuth(s string) string {
	switch strings.ToLower(s) {
	case "open", "开放式":
		return AuthOpen
	}
	return s
}

func netshEnc(s string) string {
	switch strings.ToLower(s) {
	case "none", "无":
		return EncNone
	}
	return s
}
