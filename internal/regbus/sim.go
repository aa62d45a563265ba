// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package regbus

import (
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// MPU-9250 registers the simulator gives special behavior.
const (
	simRegIntStatus = 0x3A
	simRegBurst     = 0x3B
	simBurstLen     = 14
	simRegPwrMgmt1  = 0x6B
	simRegWhoAmI    = 0x75

	simWhoAmI = 0x71
)

// ErrNoDevice is returned by Sim for transactions addressed to another device.
var ErrNoDevice = errors.New("regbus: no device at address")

// Sim emulates the register file of one MPU-9250. Registers hold their reset
// values after NewSim; the sample block changes only through SetBurst or the
// waveform generator. Reading INT_STATUS clears the data-ready bit, as on the
// real device.
type Sim struct {
	mu        sync.Mutex
	addr      uint16
	regs      [256]byte
	writes    int
	reads     int
	faults    map[byte]error
	shortRead int
	start     time.Time
	now       func() time.Time
}

// NewSim returns a simulated device answering at addr.
func NewSim(addr uint16) *Sim {
	s := &Sim{addr: addr, faults: make(map[byte]error), now: time.Now}
	s.regs[simRegPwrMgmt1] = 0x01
	s.regs[simRegWhoAmI] = simWhoAmI
	return s
}

// EnableWaveform makes every burst read return smoothly changing samples:
// slow tilt on the accelerometer, a steady ≈25 °C temperature, and rotation
// about all three gyro axes.
func (s *Sim) EnableWaveform() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.start = s.now()
}

// SetClock replaces the time source used by the waveform generator.
func (s *Sim) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	if !s.start.IsZero() {
		s.start = now()
	}
}

// SetBurst stores seven raw counts (accel XYZ, temp, gyro XYZ) into the sample
// block and raises data-ready.
func (s *Sim) SetBurst(raw [7]int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setBurst(raw)
}

func (s *Sim) setBurst(raw [7]int16) {
	for i, v := range raw {
		binary.BigEndian.PutUint16(s.regs[simRegBurst+2*i:], uint16(v))
	}
	s.regs[simRegIntStatus] |= 0x01
}

// SetRegister seeds a register without counting as a bus write.
func (s *Sim) SetRegister(reg, v byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs[reg] = v
}

// Register returns a register value without counting as a bus read.
func (s *Sim) Register(reg byte) byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[reg]
}

// FailOn makes every transaction touching reg fail with err. A nil err clears
// the fault.
func (s *Sim) FailOn(reg byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, reg)
		return
	}
	s.faults[reg] = err
}

// ShortRead caps the byte count returned by ReadInto; 0 removes the cap.
func (s *Sim) ShortRead(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shortRead = n
}

// Writes returns the number of Write calls accepted so far.
func (s *Sim) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Reads returns the number of ReadInto and ReadSingle calls served so far.
func (s *Sim) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func (s *Sim) Write(addr uint16, reg byte, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(addr, reg, len(data)); err != nil {
		return err
	}
	s.writes++
	for i, v := range data {
		r := reg + byte(i)
		if r == simRegWhoAmI || (r >= simRegBurst && r < simRegBurst+simBurstLen) {
			continue
		}
		s.regs[r] = v
	}
	return nil
}

func (s *Sim) ReadInto(addr uint16, reg byte, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, ErrEmptyBuffer
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(addr, reg, len(buf)); err != nil {
		return 0, err
	}
	s.reads++
	if !s.start.IsZero() && overlaps(reg, len(buf), simRegBurst, simBurstLen) {
		s.setBurst(s.wave())
	}
	n := len(buf)
	if s.shortRead > 0 && s.shortRead < n {
		n = s.shortRead
	}
	for i := 0; i < n; i++ {
		buf[i] = s.regs[reg+byte(i)]
	}
	if overlaps(reg, n, simRegIntStatus, 1) {
		s.regs[simRegIntStatus] &^= 0x01
	}
	return n, nil
}

func (s *Sim) ReadSingle(addr uint16, reg byte) (byte, error) {
	var b [1]byte
	if _, err := s.ReadInto(addr, reg, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s *Sim) Close() error {
	return nil
}

func (s *Sim) String() string {
	return "sim-mpu9250"
}

func (s *Sim) check(addr uint16, reg byte, n int) error {
	if addr != s.addr {
		return errors.Wrapf(ErrNoDevice, "0x%02X", addr)
	}
	for i := 0; i < n; i++ {
		if err, ok := s.faults[reg+byte(i)]; ok {
			return err
		}
	}
	return nil
}

func (s *Sim) wave() [7]int16 {
	e := s.now().Sub(s.start).Seconds()
	return [7]int16{
		int16(4000 * math.Sin(e)),
		int16(3000 * math.Cos(e*0.7)),
		16384,
		1200,
		int16(2620 * math.Cos(e)),
		int16(1965 * math.Sin(e*0.7)),
		3930,
	}
}

func overlaps(reg byte, n int, start byte, size int) bool {
	lo, hi := int(reg), int(reg)+n
	return lo < int(start)+size && int(start) < hi
}
