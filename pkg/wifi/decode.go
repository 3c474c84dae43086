// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wifi

import (
	"bytes"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
)

var (
	ssidLineRE = regexp.MustCompile(`^\s*SSID(?: \d+)?\s*:\s*`)
	// profileLabels head lines whose value is a profile name. Labels are
	// matched on the raw console bytes.
	profileLabels = [][]byte{[]byte("Profile"), encodeGBK("配置文件")}
)

// DecodeNetsh decodes netsh output. The console writes its labels in the
// native code page (GBK) but passes SSIDs through as the raw bytes the access
// point advertised, which are usually UTF-8. Each SSID is therefore decoded as
// UTF-8 when it is valid UTF-8 and as GBK otherwise; everything else is GBK.
// Undecodable bytes become U+FFFD.
func DecodeNetsh(raw []byte) string {
	var b strings.Builder
	lines := bytes.Split(raw, []byte("\n"))
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		line = bytes.TrimSuffix(line, []byte("\r"))
		at := nameStart(line)
		if at < 0 {
			b.WriteString(decodeGBK(line))
			continue
		}
		b.WriteString(decodeGBK(line[:at]))
		name := line[at:]
		if utf8.Valid(name) {
			b.Write(name)
		} else {
			b.WriteString(decodeGBK(name))
		}
	}
	return b.String()
}

// nameStart returns the offset of the SSID or profile name carried by
// line, or -1.
func nameStart(line []byte) int {
	if loc := ssidLineRE.FindIndex(line); loc != nil {
		return loc[1]
	}
	rest := bytes.TrimLeft(line, " \t")
	for _, l := range profileLabels {
		if !bytes.HasPrefix(rest, l) {
			continue
		}
		i := bytes.IndexByte(line, ':')
		if i < 0 {
			return -1
		}
		for i++; i < len(line) && line[i] == ' '; i++ {
		}
		return i
	}
	return -1
}

// DecodeUTF8 decodes raw as UTF-8, replacing invalid sequences.
func DecodeUTF8(raw []byte) string {
	return strings.ToValidUTF8(strings.ReplaceAll(string(raw), "\r\n", "\n"), "�")
}

func decodeGBK(b []byte) string {
	out, err := simplifiedchinese.GBK.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}
	return string(out)
}

func encodeGBK(s string) []byte {
	out, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return out
}
