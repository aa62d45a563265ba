// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mpu9250

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Raw is one sample block in device counts.
type Raw struct {
	Ax, Ay, Az int16
	Temp       int16
	Gx, Gy, Gz int16
}

// Sample is one sample block in physical units.
//
// Divisions round toward negative infinity, so -1 count at ±2 g reads as
// -1 milli-g rather than 0. Sensitivities are themselves rounded down, which
// overstates readings slightly for ranges where 2^16/(2*range) is not whole.
type Sample struct {
	Ax, Ay, Az int // milli-g
	Temp       int // centi-degrees Celsius
	Gx, Gy, Gz int // milli-degrees per second
}

// ReadRaw fetches the 14-byte sample block in a single burst so all seven
// channels come from the same sampling instant.
func (d *Dev) ReadRaw() (Raw, error) {
	var buf [burstLen]byte
	n, err := d.bus.ReadInto(d.addr, RegAccelXOutH, buf[:])
	if err != nil {
		return Raw{}, &IOError{Op: "burst read", Reg: RegAccelXOutH, Err: err}
	}
	if n < burstLen {
		return Raw{}, &IOError{Op: "burst read", Reg: RegAccelXOutH, Err: errors.Errorf("short read: %d of %d bytes", n, burstLen)}
	}
	return Raw{
		Ax:   word(buf[0:]),
		Ay:   word(buf[2:]),
		Az:   word(buf[4:]),
		Temp: word(buf[6:]),
		Gx:   word(buf[8:]),
		Gy:   word(buf[10:]),
		Gz:   word(buf[12:]),
	}, nil
}

// Sense reads one sample block and converts it with the current full scales.
func (d *Dev) Sense() (Sample, error) {
	r, err := d.ReadRaw()
	if err != nil {
		return Sample{}, err
	}
	return Convert(r, d.accel.sensitivity, d.gyro.sensitivity), nil
}

// Convert scales raw counts to physical units.
func Convert(r Raw, accelSens, gyroSens int) Sample {
	return Sample{
		Ax:   scale(r.Ax, accelSens),
		Ay:   scale(r.Ay, accelSens),
		Az:   scale(r.Az, accelSens),
		Temp: centiCelsius(r.Temp),
		Gx:   scale(r.Gx, gyroSens),
		Gy:   scale(r.Gy, gyroSens),
		Gz:   scale(r.Gz, gyroSens),
	}
}

// word reads a big-endian two's-complement pair.
func word(b []byte) int16 {
	return int16(binary.BigEndian.Uint16(b))
}

func scale(v int16, sens int) int {
	return floorDiv(int(v)*1000, sens)
}

// centiCelsius applies the fixed transfer function raw/3 + 21.00 °C. No
// room-temperature offset calibration is applied.
func centiCelsius(v int16) int {
	return floorDiv(int(v), 3) + 2100
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
