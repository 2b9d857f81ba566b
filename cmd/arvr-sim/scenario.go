// SPDX-FileCopyrightText: 2026 The arvr-sim authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// scenario mirrors the command line flags in a YAML file. Durations are
// strings in Go duration syntax ("33ms", "200us"). Zero-valued fields keep
// their defaults, and fields whose flag was set explicitly are not touched.
type scenario struct {
	Transport      string  `yaml:"transport"`
	RateMbps       float64 `yaml:"rateMbps"`
	Delay          string  `yaml:"delay"`
	Loss           float64 `yaml:"loss"`
	QueueBytes     int     `yaml:"queueBytes"`
	DeadlineMs     uint    `yaml:"deadlineMs"`
	FrameSize      int     `yaml:"frameSize"`
	Payload        int     `yaml:"payload"`
	FrameInterval  string  `yaml:"frameInterval"`
	PacingInterval string  `yaml:"pacingInterval"`
	StreamBuffer   int     `yaml:"streamBuffer"`
	UplinkInterval string  `yaml:"uplinkInterval"`
	UplinkSize     int     `yaml:"uplinkSize"`
	Duration       string  `yaml:"duration"`
}

func loadScenario(path string, cfg *runConfig, explicit map[string]bool) error {
	data, err := os.ReadFile(path) //nolint:gosec // operator-chosen path
	if err != nil {
		return fmt.Errorf("reading scenario: %w", err)
	}
	var sc scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return fmt.Errorf("parsing scenario %s: %w", path, err)
	}

	if sc.Transport != "" && !explicit["transport"] {
		cfg.transport = sc.Transport
	}
	if sc.RateMbps != 0 && !explicit["rate"] {
		cfg.rateMbps = sc.RateMbps
	}
	if sc.Loss != 0 && !explicit["loss"] {
		cfg.loss = sc.Loss
	}
	if sc.QueueBytes != 0 && !explicit["queue"] {
		cfg.queueBytes = sc.QueueBytes
	}
	if sc.DeadlineMs != 0 && !explicit["deadline"] {
		cfg.deadlineMs = sc.DeadlineMs
	}
	if sc.FrameSize != 0 && !explicit["frameSize"] {
		cfg.frameSize = sc.FrameSize
	}
	if sc.Payload != 0 && !explicit["payload"] {
		cfg.payload = sc.Payload
	}
	if sc.StreamBuffer != 0 && !explicit["streamBuffer"] {
		cfg.streamBuffer = sc.StreamBuffer
	}
	if sc.UplinkSize != 0 && !explicit["uplinkSize"] {
		cfg.uplinkSize = sc.UplinkSize
	}

	for _, d := range []struct {
		value string
		flag  string
		dst   *time.Duration
	}{
		{sc.Delay, "delay", &cfg.delay},
		{sc.FrameInterval, "frameInterval", &cfg.frameInterval},
		{sc.PacingInterval, "pacing", &cfg.pacing},
		{sc.UplinkInterval, "uplinkInterval", &cfg.uplinkInterval},
		{sc.Duration, "duration", &cfg.duration},
	} {
		if d.value == "" || explicit[d.flag] {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("scenario %s: %w", d.flag, err)
		}
		*d.dst = parsed
	}

	return nil
}
