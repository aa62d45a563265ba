// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package regbus provides addressed register access to I²C peripherals.
//
// A Bus performs one transaction per call and adds no policy: no retries, no
// timeouts, no locking. Wrap a Bus shared between several devices in Locked.
package regbus

import (
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Bus reads and writes device registers.
type Bus interface {
	// Write writes data starting at register reg of the device at addr.
	Write(addr uint16, reg byte, data []byte) error
	// ReadInto fills buf starting at register reg and returns the number of
	// bytes the device actually returned.
	ReadInto(addr uint16, reg byte, buf []byte) (int, error)
	// ReadSingle reads one register.
	ReadSingle(addr uint16, reg byte) (byte, error)
}

// BusCloser is a Bus owning an underlying handle.
type BusCloser interface {
	Bus
	io.Closer
}

// Backend names accepted by Open.
const (
	BackendPeriph = "periph"
	BackendEmbd   = "embd"
	BackendD2r2   = "d2r2"
	BackendSim    = "sim"
)

// ErrEmptyBuffer is returned when a read is requested into a zero-length buffer.
var ErrEmptyBuffer = errors.New("regbus: empty read buffer")

// Open opens the named backend on the given bus. For the periph backend busName
// is an i2creg name ("" selects the first bus); the embd and d2r2 backends
// expect a bus number. The sim backend ignores busName and emulates a device at
// simAddr.
func Open(backend, busName string, simAddr uint16) (BusCloser, error) {
	switch backend {
	case BackendPeriph, "":
		return OpenPeriph(busName)
	case BackendEmbd:
		line, err := busNumber(busName)
		if err != nil {
			return nil, err
		}
		return OpenEmbd(byte(line))
	case BackendD2r2:
		line, err := busNumber(busName)
		if err != nil {
			return nil, err
		}
		return OpenD2r2(line), nil
	case BackendSim:
		s := NewSim(simAddr)
		s.EnableWaveform()
		return s, nil
	default:
		return nil, errors.Errorf("regbus: unknown backend %q", backend)
	}
}

// busNumber accepts "1" or "/dev/i2c-1".
func busNumber(name string) (int, error) {
	if name == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(name, "/dev/i2c-"))
	if err != nil || n < 0 || n > 255 {
		return 0, errors.Errorf("regbus: invalid bus number %q", name)
	}
	return n, nil
}
