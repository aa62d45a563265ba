// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package mpu9250 drives the accelerometer, gyroscope and temperature sensor
// of an InvenSense MPU-9250 over I²C.
//
// The driver keeps the configured full-scale ranges and their sensitivities in
// memory and converts the raw sample block into integer physical units:
// milli-g, centi-degrees Celsius and milli-degrees per second. It never logs
// and never retries; bus errors reach the caller as IOError.
//
// A Dev is not safe for concurrent use.
//
// Register map:
// https://invensense.tdk.com/wp-content/uploads/2015/02/RM-MPU-9250A-00-v1.6.pdf
package mpu9250

import (
	"fmt"
	"reflect"

	"github.com/relabs-tech/imu_driver/internal/regbus"
)

// Opts holds the settings applied by New.
type Opts struct {
	AD0            bool // AD0 pin pulled high, selects address 0x69
	GyroFullScale  int  // °/s: 250, 500, 1000 or 2000
	AccelFullScale int  // g: 2, 4, 8 or 16
	Bypass         bool // expose the magnetometer on the host bus
	FullBandwidth  bool // bypass the gyro and accel low-pass filters
}

// DefaultOpts selects the narrowest ranges with bypass on and filters off.
var DefaultOpts = Opts{
	GyroFullScale:  250,
	AccelFullScale: 2,
	Bypass:         true,
	FullBandwidth:  true,
}

// Dev is a handle to one MPU-9250.
type Dev struct {
	bus   regbus.Bus
	addr  uint16
	gyro  scaleState
	accel scaleState
}

// Address returns the device address for the given AD0 strap.
func Address(ad0 bool) uint16 {
	if ad0 {
		return AddrAD0High
	}
	return AddrAD0Low
}

// New wakes the device and applies opts. A nil opts means DefaultOpts.
// Ranges are validated before the first bus transaction. A nil bus, including
// a nil pointer of a concrete bus type, gives ErrConstruction.
func New(bus regbus.Bus, opts *Opts) (*Dev, error) {
	if isNilBus(bus) {
		return nil, ErrConstruction
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	if _, err := gyroAxis.field(opts.GyroFullScale); err != nil {
		return nil, err
	}
	if _, err := accelAxis.field(opts.AccelFullScale); err != nil {
		return nil, err
	}

	d := &Dev{bus: bus, addr: Address(opts.AD0)}
	if err := d.Wake(); err != nil {
		return nil, err
	}
	if err := d.SetBypass(opts.Bypass); err != nil {
		return nil, err
	}
	if err := d.SetGyroFullScale(opts.GyroFullScale); err != nil {
		return nil, err
	}
	if err := d.SetAccelFullScale(opts.AccelFullScale); err != nil {
		return nil, err
	}
	if opts.FullBandwidth {
		if err := d.SetFullBandwidth(); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Addr returns the 7-bit bus address.
func (d *Dev) Addr() uint16 {
	return d.addr
}

func (d *Dev) String() string {
	return fmt.Sprintf("MPU9250{addr:0x%02X, gyro:±%d°/s, accel:±%dg}", d.addr, d.gyro.magnitude, d.accel.magnitude)
}

func (d *Dev) readByte(reg byte) (byte, error) {
	v, err := d.bus.ReadSingle(d.addr, reg)
	if err != nil {
		return 0, &IOError{Op: "read", Reg: reg, Err: err}
	}
	return v, nil
}

func (d *Dev) writeByte(reg, v byte) error {
	if err := d.bus.Write(d.addr, reg, []byte{v}); err != nil {
		return &IOError{Op: "write", Reg: reg, Err: err}
	}
	return nil
}

// updateBits rewrites reg as (reg & keep) | set.
func (d *Dev) updateBits(reg, keep, set byte) error {
	v, err := d.readByte(reg)
	if err != nil {
		return err
	}
	return d.writeByte(reg, v&keep|set)
}

func isNilBus(bus regbus.Bus) bool {
	if bus == nil {
		return true
	}
	v := reflect.ValueOf(bus)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Func, reflect.Chan, reflect.Interface, reflect.Slice:
		return v.IsNil()
	}
	return false
}
