// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package wifi

import (
	"runtime"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	siocgiwessid    = 0x8B1B
	iwEssidMaxSize  = 32
	iwreqDataLength = 16
)

// iwPoint mirrors struct iw_point from <linux/wireless.h>.
type iwPoint struct {
	pointer uintptr
	length  uint16
	flags   uint16
}

type iwreqPoint struct {
	name  [unix.IFNAMSIZ]byte
	point iwPoint
	_     [iwreqDataLength - unsafe.Sizeof(iwPoint{})]byte
}

// nativeESSID asks the kernel which ESSID iface is associated with,
// returning "" when it is not associated.
func nativeESSID(iface string) (string, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return "", err
	}
	defer unix.Close(fd)

	var buf [iwEssidMaxSize + 1]byte
	var req iwreqPoint
	copy(req.name[:unix.IFNAMSIZ-1], iface)
	req.point.pointer = uintptr(unsafe.Pointer(&buf[0]))
	req.point.length = uint16(len(buf))

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), siocgiwessid, uintptr(unsafe.Pointer(&req)))
	runtime.KeepAlive(&buf)
	if errno != 0 {
		return "", errno
	}
	n := int(req.point.length)
	if n > iwEssidMaxSize {
		n = iwEssidMaxSize
	}
	return strings.TrimRight(string(buf[:n]), "\x00"), nil
}
