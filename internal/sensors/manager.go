// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensors owns the live MPU-9250 used by the tools: it opens the
// configured bus, constructs the driver and serializes every access from the
// producer loop, the debug server and the CLI.
package sensors

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"

	"github.com/relabs-tech/imu_driver/internal/config"
	"github.com/relabs-tech/imu_driver/internal/imu"
	"github.com/relabs-tech/imu_driver/internal/mpu9250"
	"github.com/relabs-tech/imu_driver/internal/regbus"
)

// ErrNotInitialized is returned by device operations before a successful Init.
var ErrNotInitialized = errors.New("sensors: IMU not initialized")

// Manager guards one MPU-9250. All methods are safe for concurrent use.
type Manager struct {
	mu   sync.Mutex
	bus  regbus.Bus
	raw  regbus.BusCloser // nil when the bus is borrowed
	opts mpu9250.Opts
	dev  *mpu9250.Dev
	now  func() time.Time
}

// NewManager wraps a bus the caller keeps ownership of.
func NewManager(bus regbus.Bus, opts mpu9250.Opts) *Manager {
	return &Manager{bus: bus, opts: opts, now: time.Now}
}

// OpenFromConfig opens the configured backend and returns a Manager that owns
// it. The device itself is not touched until Init.
func OpenFromConfig(cfg *config.Config) (*Manager, error) {
	opts := OptsFromConfig(cfg)
	bc, err := regbus.Open(cfg.BusBackend, cfg.I2CBus, mpu9250.Address(opts.AD0))
	if err != nil {
		return nil, err
	}
	m := NewManager(regbus.NewLocked(bc), opts)
	m.raw = bc
	return m, nil
}

// OptsFromConfig maps configuration keys onto driver options.
func OptsFromConfig(cfg *config.Config) mpu9250.Opts {
	return mpu9250.Opts{
		AD0:            cfg.AD0,
		GyroFullScale:  cfg.GyroFullScale,
		AccelFullScale: cfg.AccelFullScale,
		Bypass:         cfg.Bypass,
		FullBandwidth:  cfg.FullBandwidth,
	}
}

// Init constructs the driver, which wakes the device and applies the options.
func (m *Manager) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initLocked()
}

func (m *Manager) initLocked() error {
	opts := m.opts
	dev, err := mpu9250.New(m.bus, &opts)
	if err != nil {
		m.dev = nil
		return err
	}
	m.dev = dev
	return nil
}

// Reinitialize runs the construction sequence again, dropping any register
// changes made since.
func (m *Manager) Reinitialize() error {
	return m.Init()
}

// Available reports whether Init has succeeded.
func (m *Manager) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dev != nil
}

// Name labels samples from this device.
func (m *Manager) Name() string {
	return fmt.Sprintf("mpu9250@0x%02X", mpu9250.Address(m.opts.AD0))
}

func (m *Manager) with(fn func(d *mpu9250.Dev) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev == nil {
		return ErrNotInitialized
	}
	return fn(m.dev)
}

// Next reads and stamps one sample.
func (m *Manager) Next() (imu.Sample, error) {
	var s imu.Sample
	err := m.with(func(d *mpu9250.Dev) error {
		r, err := d.Sense()
		if err != nil {
			return err
		}
		s = imu.FromReading(m.Name(), m.now(), r)
		return nil
	})
	return s, err
}

// ReadRaw reads one sample block without conversion.
func (m *Manager) ReadRaw() (mpu9250.Raw, error) {
	var r mpu9250.Raw
	err := m.with(func(d *mpu9250.Dev) (err error) {
		r, err = d.ReadRaw()
		return err
	})
	return r, err
}

// ReadRegister reads one MPU-9250 register.
func (m *Manager) ReadRegister(reg byte) (byte, error) {
	var v byte
	err := m.with(func(d *mpu9250.Dev) (err error) {
		v, err = d.ReadRegister(reg)
		return err
	})
	return v, err
}

// WriteRegister writes one MPU-9250 register. Writes to the full-scale
// registers resynchronize the driver's sensitivities.
func (m *Manager) WriteRegister(reg, value byte) error {
	return m.with(func(d *mpu9250.Dev) error {
		if err := d.WriteRegister(reg, value); err != nil {
			return err
		}
		if reg == mpu9250.RegGyroConfig || reg == mpu9250.RegAccelConfig {
			return d.Resync()
		}
		return nil
	})
}

// ReadAllRegisters reads every register in the register map.
func (m *Manager) ReadAllRegisters() (map[byte]byte, error) {
	out := make(map[byte]byte)
	err := m.with(func(d *mpu9250.Dev) error {
		for _, r := range mpu9250.RegisterMap() {
			v, err := d.ReadRegister(r.Address)
			if err != nil {
				return err
			}
			out[r.Address] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetRanges changes the full scales. A zero leaves that axis alone. An
// invalid value for either axis leaves both untouched.
func (m *Manager) SetRanges(gyroDPS, accelG int) error {
	return m.with(func(d *mpu9250.Dev) error {
		return d.SetFullScales(gyroDPS, accelG)
	})
}

// Status is a snapshot of the device identity and configuration.
type Status struct {
	Name             string `json:"name"`
	WhoAmI           byte   `json:"who_am_i"`
	Bypass           bool   `json:"bypass"`
	GyroFullScale    int    `json:"gyro_full_scale"`
	AccelFullScale   int    `json:"accel_full_scale"`
	GyroSensitivity  int    `json:"gyro_sensitivity"`
	AccelSensitivity int    `json:"accel_sensitivity"`
}

// Probe reads identity and configuration back from the device.
func (m *Manager) Probe() (Status, error) {
	st := Status{Name: m.Name()}
	err := m.with(func(d *mpu9250.Dev) (err error) {
		if st.WhoAmI, err = d.WhoAmI(); err != nil {
			return err
		}
		if st.Bypass, err = d.Bypass(); err != nil {
			return err
		}
		if st.GyroFullScale, err = d.GyroFullScale(); err != nil {
			return err
		}
		if st.AccelFullScale, err = d.AccelFullScale(); err != nil {
			return err
		}
		st.GyroSensitivity = d.GyroSensitivity()
		st.AccelSensitivity = d.AccelSensitivity()
		return nil
	})
	return st, err
}

// Known reports whether the identity register matches a supported part.
func (s Status) Known() bool {
	return s.WhoAmI == mpu9250.WhoAmIMPU9250 || s.WhoAmI == mpu9250.WhoAmIMPU9255
}

// Bus returns the shared, locked register bus.
func (m *Manager) Bus() regbus.Bus {
	return m.bus
}

// I2C returns the periph bus underneath, if the backend is periph.
func (m *Manager) I2C() (i2c.Bus, bool) {
	p, ok := m.raw.(interface{ I2C() i2c.Bus })
	if !ok {
		return nil, false
	}
	return p.I2C(), true
}

// Close releases the bus if the Manager opened it.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dev = nil
	if m.raw == nil {
		return nil
	}
	return m.raw.Close()
}
