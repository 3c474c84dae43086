// Copyright 2019 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dhclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vishvananda/netlink"
	"go.uber.org/zap/zaptest"
)

func TestMatchLinks(t *testing.T) {
	links := []netlink.Link{
		&netlink.Dummy{LinkAttrs: netlink.LinkAttrs{Name: "lo"}},
		&netlink.Dummy{LinkAttrs: netlink.LinkAttrs{Name: "wlan0"}},
		&netlink.Dummy{LinkAttrs: netlink.LinkAttrs{Name: "wlan01"}},
	}
	got := matchLinks(links, "wlan0")
	require.Len(t, got, 1)
	assert.Equal(t, "wlan0", got[0].Attrs().Name)
	assert.Empty(t, matchLinks(links, "eth0"))
}

func TestRequestNoFamily(t *testing.T) {
	err := Request(context.Background(), "wlan0", Config{}, zaptest.NewLogger(t).Sugar())
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	assert.True(t, c.IPv4)
	assert.False(t, c.IPv6)
	assert.Positive(t, c.Timeout)
}
