//
// Copyright (c) 2025-2026 Markku Rossi
//
// All rights reserved.
//

// Package env implements global environment for the garbled circuit
// system.
package env

import (
	"crypto/rand"
	"io"
	"time"

	"go.uber.org/zap"
)

// OT key size limits in bits.
const (
	DefaultOTKeyBits = 2048
	MinOTKeyBits     = 1024
)

// Config defines the global system configuration. It configures
// system operation for the garbler and the evaluator. Config must not
// be modified after being passed to any module. It is safe for
// concurrent use by multiple modules as they do not modify it. A nil
// Config is valid and uses the defaults.
type Config struct {
	// Rand is the source of entropy. If nil, crypto/rand is used.
	Rand io.Reader

	// Logger receives structured session logs. If nil, logging is
	// disabled.
	Logger *zap.Logger

	// OTKeyBits specifies the RSA key size for oblivious transfer.
	OTKeyBits int

	// Timeout limits each request/reply round trip. Zero disables
	// timeouts.
	Timeout time.Duration

	// Verbose enables the timing report.
	Verbose bool
}

// GetRandom returns the source of entropy for garbling, OT, and other
// cryptography operations.
func (config *Config) GetRandom() io.Reader {
	if config != nil && config.Rand != nil {
		return config.Rand
	}
	return rand.Reader
}

// GetLogger returns the session logger.
func (config *Config) GetLogger() *zap.Logger {
	if config != nil && config.Logger != nil {
		return config.Logger
	}
	return zap.NewNop()
}

// GetOTKeyBits returns the OT key size. Values below MinOTKeyBits are
// raised to the minimum.
func (config *Config) GetOTKeyBits() int {
	if config == nil || config.OTKeyBits == 0 {
		return DefaultOTKeyBits
	}
	if config.OTKeyBits < MinOTKeyBits {
		return MinOTKeyBits
	}
	return config.OTKeyBits
}

// GetTimeout returns the round trip timeout.
func (config *Config) GetTimeout() time.Duration {
	if config == nil {
		return 0
	}
	return config.Timeout
}

// IsVerbose tests if the timing report is enabled.
func (config *Config) IsVerbose() bool {
	return config != nil && config.Verbose
}
