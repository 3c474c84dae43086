// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package wifi

import "errors"

func nativeESSID(iface string) (string, error) {
	return "", errors.New("wireless extensions are only available on linux")
}
