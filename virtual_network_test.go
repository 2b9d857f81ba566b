// SPDX-FileCopyrightText: 2026 The arvr-sim authors
// SPDX-License-Identifier: MIT

//go:build !js && go1.25

package arvr_test

import (
	"errors"
	"testing"
	"time"

	"github.com/pion/logging"
	"github.com/pion/transport/v3/vnet"
	"github.com/stretchr/testify/assert"
)

const (
	senderIP   = "10.0.0.1"
	receiverIP = "10.0.0.2"
)

// virtualNetwork joins a sender net and a receiver net through a single
// router. The path toward the receiver is shaped by a token bucket filter
// and a fixed delay filter, so downlink traffic sees the configured
// bottleneck while uplink traffic passes unshaped.
type virtualNetwork struct {
	wan      *vnet.Router
	sender   *vnet.Net
	receiver *vnet.Net
	tbf      *vnet.TokenBucketFilter
	delay    *vnet.DelayFilter
}

func (n *virtualNetwork) Close() error {
	return errors.Join(
		n.tbf.Close(),
		n.delay.Close(),
		n.wan.Stop(),
	)
}

func createVirtualNetwork(rate, burst, queueBytes int, delay time.Duration) func(*testing.T) *virtualNetwork {
	return func(t *testing.T) *virtualNetwork {
		t.Helper()

		wan, err := vnet.NewRouter(&vnet.RouterConfig{
			CIDR:          "0.0.0.0/0",
			LoggerFactory: logging.NewDefaultLoggerFactory(),
		})
		assert.NoError(t, err)

		senderNet, err := vnet.NewNet(&vnet.NetConfig{
			StaticIPs: []string{senderIP},
		})
		assert.NoError(t, err)
		err = wan.AddNet(senderNet)
		assert.NoError(t, err)

		receiverNet, err := vnet.NewNet(&vnet.NetConfig{
			StaticIPs: []string{receiverIP},
		})
		assert.NoError(t, err)

		tbf, err := vnet.NewTokenBucketFilter(
			receiverNet,
			vnet.TBFRate(rate),
			vnet.TBFMaxBurst(burst),
			vnet.TBFQueueSizeInBytes(queueBytes),
		)
		assert.NoError(t, err)

		delayFilter, err := vnet.NewDelayFilter(tbf, delay)
		assert.NoError(t, err)

		err = wan.AddNet(delayFilter)
		assert.NoError(t, err)

		err = wan.Start()
		assert.NoError(t, err)

		return &virtualNetwork{
			wan:      wan,
			sender:   senderNet,
			receiver: receiverNet,
			tbf:      tbf,
			delay:    delayFilter,
		}
	}
}
