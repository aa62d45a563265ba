// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mpu9250

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidRange reports a full-scale magnitude outside the four legal
	// steps. It is returned before any bus traffic.
	ErrInvalidRange = errors.New("mpu9250: invalid full-scale range")
	// ErrDeviceIO matches every IOError.
	ErrDeviceIO = errors.New("mpu9250: device I/O error")
	// ErrConstruction is returned by New when no register bus is supplied.
	ErrConstruction = errors.New("mpu9250: nil register bus")
)

// IOError is a failed or short bus transaction. The transport error, if any,
// is kept as the cause.
type IOError struct {
	Op  string
	Reg byte
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("mpu9250: %s 0x%02X: %v", e.Op, e.Reg, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Cause lets errors.Cause reach the transport error.
func (e *IOError) Cause() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrDeviceIO }
