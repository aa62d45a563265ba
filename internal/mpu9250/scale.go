// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mpu9250

import "github.com/pkg/errors"

// axis describes one full-scale field: the narrowest magnitude and the
// register holding its 2-bit selector. Each further step doubles the range.
type axis struct {
	name string
	unit string
	base int
	reg  byte
}

var (
	gyroAxis  = axis{name: "gyro", unit: "°/s", base: 250, reg: RegGyroConfig}
	accelAxis = axis{name: "accel", unit: "g", base: 2, reg: RegAccelConfig}
)

// field returns the selector for magnitude already shifted into bits 4:3.
func (a axis) field(magnitude int) (byte, error) {
	for i := 0; i < 4; i++ {
		if a.base<<i == magnitude {
			return byte(i) << fsShift, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidRange, "%s full scale %d %s", a.name, magnitude, a.unit)
}

// magnitude decodes the selector bits of a configuration byte.
func (a axis) magnitude(reg byte) int {
	return a.base << ((reg & fsMask) >> fsShift)
}

// sensitivity is the count per unit for a full scale of ±magnitude spread
// over the signed 16-bit output, rounded down.
func sensitivity(magnitude int) int {
	return (1 << 16) / (2 * magnitude)
}

// scaleState pairs a full scale with its sensitivity. Only set changes it.
type scaleState struct {
	magnitude   int
	sensitivity int
}

func (s *scaleState) set(magnitude int) {
	s.magnitude = magnitude
	s.sensitivity = sensitivity(magnitude)
}

func (d *Dev) setFullScale(a axis, s *scaleState, magnitude int) error {
	f, err := a.field(magnitude)
	if err != nil {
		return err
	}
	if err := d.updateBits(a.reg, fsKeep, f); err != nil {
		return err
	}
	s.set(magnitude)
	return nil
}

func (d *Dev) fullScale(a axis) (int, error) {
	v, err := d.readByte(a.reg)
	if err != nil {
		return 0, err
	}
	return a.magnitude(v), nil
}

// SetGyroFullScale selects ±dps (250, 500, 1000 or 2000) and updates the gyro
// sensitivity. The other GYRO_CONFIG bits are preserved.
func (d *Dev) SetGyroFullScale(dps int) error {
	return d.setFullScale(gyroAxis, &d.gyro, dps)
}

// GyroFullScale reads the gyro full scale back from the device.
func (d *Dev) GyroFullScale() (int, error) {
	return d.fullScale(gyroAxis)
}

// SetAccelFullScale selects ±g (2, 4, 8 or 16) and updates the accel
// sensitivity. The other ACCEL_CONFIG bits are preserved.
func (d *Dev) SetAccelFullScale(g int) error {
	return d.setFullScale(accelAxis, &d.accel, g)
}

// AccelFullScale reads the accel full scale back from the device.
func (d *Dev) AccelFullScale() (int, error) {
	return d.fullScale(accelAxis)
}

// SetFullScales sets both full scales. A zero leaves that axis alone. Both
// values are checked before any register is written.
func (d *Dev) SetFullScales(dps, g int) error {
	if dps != 0 {
		if _, err := gyroAxis.field(dps); err != nil {
			return err
		}
	}
	if g != 0 {
		if _, err := accelAxis.field(g); err != nil {
			return err
		}
	}
	if dps != 0 {
		if err := d.SetGyroFullScale(dps); err != nil {
			return err
		}
	}
	if g != 0 {
		return d.SetAccelFullScale(g)
	}
	return nil
}

// GyroSensitivity returns counts per °/s for the last full scale set.
func (d *Dev) GyroSensitivity() int {
	return d.gyro.sensitivity
}

// AccelSensitivity returns counts per g for the last full scale set.
func (d *Dev) AccelSensitivity() int {
	return d.accel.sensitivity
}
