// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package regbus

import (
	"github.com/kidoman/embd"
	_ "github.com/kidoman/embd/host/all" // registers the board descriptors embd needs to find the bus
	"github.com/pkg/errors"
)

// Embd is a Bus on top of an embd I²C bus.
type Embd struct {
	bus embd.I2CBus
}

// OpenEmbd initializes embd's I²C driver and opens bus line.
func OpenEmbd(line byte) (*Embd, error) {
	if err := embd.InitI2C(); err != nil {
		return nil, errors.Wrap(err, "regbus: embd i2c init")
	}
	return &Embd{bus: embd.NewI2CBus(line)}, nil
}

func (e *Embd) Write(addr uint16, reg byte, data []byte) error {
	if err := e.bus.WriteToReg(byte(addr), reg, data); err != nil {
		return errors.Wrapf(err, "regbus: write 0x%02X at 0x%02X", reg, addr)
	}
	return nil
}

func (e *Embd) ReadInto(addr uint16, reg byte, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, ErrEmptyBuffer
	}
	if err := e.bus.ReadFromReg(byte(addr), reg, buf); err != nil {
		return 0, errors.Wrapf(err, "regbus: read 0x%02X at 0x%02X", reg, addr)
	}
	return len(buf), nil
}

func (e *Embd) ReadSingle(addr uint16, reg byte) (byte, error) {
	v, err := e.bus.ReadByteFromReg(byte(addr), reg)
	if err != nil {
		return 0, errors.Wrapf(err, "regbus: read 0x%02X at 0x%02X", reg, addr)
	}
	return v, nil
}

// Close releases every bus embd opened, not only this one.
func (e *Embd) Close() error {
	return embd.CloseI2C()
}
