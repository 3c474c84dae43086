// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// wifiseek scans for wireless networks and recovers a forgotten passphrase
// of your own network by trying a list of candidates on a local interface.
//
// Synopsis:
//
//	wifiseek scan [--file FILE --platform netsh|iwlist]
//	wifiseek connect SSID [PASSWORD]
//	wifiseek crack SSID|NUMBER [--open] [--password-file FILE] [--dhcp]
//	wifiseek saved
//	wifiseek menu
package main

func main() {
	Execute()
}
