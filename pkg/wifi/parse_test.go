// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wifi

import (
	"os"
	"reflect"
	"testing"

	"golang.org/x/text/encoding/simplifiedchinese"
)

func readTestdata(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestDBMToPercent(t *testing.T) {
	for _, tt := range []struct {
		dbm  int
		want int
	}{
		{dbm: -60, want: 50},
		{dbm: -30, want: 100},
		{dbm: -90, want: 0},
		{dbm: -100, want: 0},
		{dbm: -10, want: 100},
		{dbm: -45, want: 75},
		{dbm: -89, want: 2},
	} {
		if got := DBMToPercent(tt.dbm); got != tt.want {
			t.Errorf("DBMToPercent(%d): got %d, want %d", tt.dbm, got, tt.want)
		}
	}
}

func TestIWListParse(t *testing.T) {
	got := IWListParser{}.Parse(readTestdata(t, "iwlist.txt"))
	want := []Network{
		{SSID: "HomeNet", Signal: 100, Auth: AuthWPA, Encryption: EncCCMP},
		{SSID: "CoffeeShop", Signal: 50, Auth: AuthOpen, Encryption: EncNone},
		{SSID: "OldRouter", Signal: 0, Auth: AuthUnknown, Encryption: EncUnknown},
		{SSID: "Legacy", Signal: 50, Auth: AuthWEP, Encryption: EncWEP},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("IWListParser.Parse:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestNetshParse(t *testing.T) {
	got := NetshParser{}.Parse(readTestdata(t, "netsh.txt"))
	want := []Network{
		{SSID: "HomeNet", Signal: 87, Auth: "WPA2-Personal", Encryption: "CCMP"},
		{SSID: "Guest", Signal: 40, Auth: AuthOpen, Encryption: EncNone},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NetshParser.Parse:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestNetshParseChinese(t *testing.T) {
	enc := simplifiedchinese.GBK.NewEncoder()
	gbk := func(s string) []byte {
		b, err := enc.Bytes([]byte(s))
		if err != nil {
			t.Fatal(err)
		}
		return b
	}

	var raw []byte
	raw = append(raw, gbk("接口名称 : WLAN\r\n")...)
	// The SSID is passed through as UTF-8 while the labels are GBK.
	raw = append(raw, []byte("SSID 1 : 咖啡馆\r\n")...)
	raw = append(raw, gbk("    身份验证            : WPA2 - 个人\r\n")...)
	raw = append(raw, gbk("    加密                : CCMP\r\n")...)
	raw = append(raw, gbk("         信号           : 76%\r\n")...)
	raw = append(raw, gbk("SSID 2 : ")...)
	raw = append(raw, gbk("图书馆")...)
	raw = append(raw, gbk("\r\n    身份验证            : 开放式\r\n    加密                : 无\r\n         信号           : 30%\r\n")...)

	got := NetshParser{}.Parse(raw)
	want := []Network{
		{SSID: "咖啡馆", Signal: 76, Auth: "WPA2 - 个人", Encryption: "CCMP"},
		{SSID: "图书馆", Signal: 30, Auth: AuthOpen, Encryption: EncNone},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NetshParser.Parse:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestParseNoBlocks(t *testing.T) {
	for _, tt := range []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "garbage", raw: "no wireless extensions.\n"},
		{name: "header_only", raw: "wlan0     Scan completed :\n"},
		{name: "hidden_only", raw: "SSID 1 : \n    Signal : 50%\n          Cell 01 - Address: 00:00:00:00:00:00\n ESSID:\"\"\n"},
		{name: "binary", raw: "\xff\xfe\x00\x01"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			for _, p := range []Platform{PlatformNetsh, PlatformIWList} {
				parser, err := NewParser(p)
				if err != nil {
					t.Fatal(err)
				}
				if got := parser.Parse([]byte(tt.raw)); len(got) != 0 {
					t.Errorf("%v parser: got %+v, want no networks", p, got)
				}
			}
		})
	}
}

func TestNewParser(t *testing.T) {
	if _, err := NewParser(PlatformUnknown); err == nil {
		t.Errorf("NewParser(PlatformUnknown): got nil error, want an error")
	}
	for _, tt := range []struct {
		goos string
		want Platform
	}{
		{goos: "windows", want: PlatformNetsh},
		{goos: "linux", want: PlatformIWList},
		{goos: "plan9", want: PlatformUnknown},
	} {
		if got := DetectPlatform(tt.goos); got != tt.want {
			t.Errorf("DetectPlatform(%q): got %v, want %v", tt.goos, got, tt.want)
		}
	}
}

func TestDecodeNetshReplacesBadBytes(t *testing.T) {
	got := DecodeNetsh([]byte("SSID 1 : \xff\xff\n"))
	if got == "" {
		t.Fatalf("DecodeNetsh: got empty string")
	}
	if want := "SSID 1 : "; got[:len(want)] != want {
		t.Errorf("DecodeNetsh: got %q, want prefix %q", got, want)
	}
}
