// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package regbus

import (
	i2c "github.com/d2r2/go-i2c"
	logger "github.com/d2r2/go-logger"
	"github.com/pkg/errors"
)

// D2r2 is a Bus on top of d2r2/go-i2c. go-i2c binds a handle to a single
// device address, so handles are opened lazily per address.
type D2r2 struct {
	line int
	devs map[uint16]*i2c.I2C
}

// OpenD2r2 prepares a bus on /dev/i2c-<line>. No device is opened until the
// first transaction.
func OpenD2r2(line int) *D2r2 {
	// go-i2c logs every transfer at debug level. Its "i2c" logger is
	// registered at package init, so the lookup cannot miss.
	_ = logger.ChangePackageLogLevel("i2c", logger.InfoLevel)
	return &D2r2{line: line, devs: make(map[uint16]*i2c.I2C)}
}

func (d *D2r2) dev(addr uint16) (*i2c.I2C, error) {
	if h, ok := d.devs[addr]; ok {
		return h, nil
	}
	h, err := i2c.NewI2C(uint8(addr), d.line)
	if err != nil {
		return nil, errors.Wrapf(err, "regbus: open 0x%02X on i2c-%d", addr, d.line)
	}
	d.devs[addr] = h
	return h, nil
}

func (d *D2r2) Write(addr uint16, reg byte, data []byte) error {
	h, err := d.dev(addr)
	if err != nil {
		return err
	}
	w := make([]byte, 0, len(data)+1)
	w = append(w, reg)
	w = append(w, data...)
	n, err := h.WriteBytes(w)
	if err != nil {
		return errors.Wrapf(err, "regbus: write 0x%02X at 0x%02X", reg, addr)
	}
	if n != len(w) {
		return errors.Errorf("regbus: write 0x%02X at 0x%02X: wrote %d of %d bytes", reg, addr, n, len(w))
	}
	return nil
}

// ReadInto reports the count go-i2c returns, so short reads reach the caller.
func (d *D2r2) ReadInto(addr uint16, reg byte, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, ErrEmptyBuffer
	}
	h, err := d.dev(addr)
	if err != nil {
		return 0, err
	}
	b, n, err := h.ReadRegBytes(reg, len(buf))
	if err != nil {
		return 0, errors.Wrapf(err, "regbus: read 0x%02X at 0x%02X", reg, addr)
	}
	return copy(buf, b[:n]), nil
}

func (d *D2r2) ReadSingle(addr uint16, reg byte) (byte, error) {
	h, err := d.dev(addr)
	if err != nil {
		return 0, err
	}
	v, err := h.ReadRegU8(reg)
	if err != nil {
		return 0, errors.Wrapf(err, "regbus: read 0x%02X at 0x%02X", reg, addr)
	}
	return v, nil
}

func (d *D2r2) Close() error {
	var first error
	for addr, h := range d.devs {
		if err := h.Close(); err != nil && first == nil {
			first = errors.Wrapf(err, "regbus: close 0x%02X", addr)
		}
		delete(d.devs, addr)
	}
	return first
}
