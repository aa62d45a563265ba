// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package regbus

import (
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Periph is a Bus on top of a periph.io I²C bus.
type Periph struct {
	bus    i2c.Bus
	closer i2c.BusCloser
}

// NewPeriph wraps an already opened periph bus. Closing the returned Periph
// does not close bus.
func NewPeriph(bus i2c.Bus) *Periph {
	return &Periph{bus: bus}
}

// OpenPeriph initializes the periph host drivers and opens the named bus.
func OpenPeriph(name string) (*Periph, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "regbus: periph host init")
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "regbus: open i2c bus %q", name)
	}
	return &Periph{bus: b, closer: b}, nil
}

func (p *Periph) Write(addr uint16, reg byte, data []byte) error {
	w := make([]byte, 0, len(data)+1)
	w = append(w, reg)
	w = append(w, data...)
	if err := p.bus.Tx(addr, w, nil); err != nil {
		return errors.Wrapf(err, "regbus: write 0x%02X at 0x%02X", reg, addr)
	}
	return nil
}

// ReadInto issues a register-address write followed by a repeated-start read
// of len(buf) bytes. periph transactions are all-or-nothing, so a nil error
// always means a full buffer.
func (p *Periph) ReadInto(addr uint16, reg byte, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, ErrEmptyBuffer
	}
	if err := p.bus.Tx(addr, []byte{reg}, buf); err != nil {
		return 0, errors.Wrapf(err, "regbus: read 0x%02X at 0x%02X", reg, addr)
	}
	return len(buf), nil
}

func (p *Periph) ReadSingle(addr uint16, reg byte) (byte, error) {
	var b [1]byte
	if _, err := p.ReadInto(addr, reg, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (p *Periph) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

func (p *Periph) String() string {
	return p.bus.String()
}

// I2C returns the underlying periph bus so other periph drivers can share it.
func (p *Periph) I2C() i2c.Bus {
	return p.bus
}
