// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// DefaultPath is the configuration file the tools look for when --config is
// not given.
const DefaultPath = "./imu_config.txt"

// Config holds all application configuration values.
type Config struct {
	// IMU hardware
	BusBackend string // periph, embd, d2r2 or sim
	I2CBus     string
	AD0        bool

	// IMU settings applied at startup
	GyroFullScale  int // °/s
	AccelFullScale int // g
	Bypass         bool
	FullBandwidth  bool

	// Timing
	IMUSampleInterval int // milliseconds

	LogLevel logrus.Level

	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDMonitor  string
	TopicIMU             string

	// Serial sentence output; empty port disables it
	SerialPort     string
	SerialBaudRate int

	// Display
	DisplayEnabled bool

	// Register debug server
	DebugServerAddr    string
	DebugAllowedWrites RegisterRanges
}

var defaults = map[string]interface{}{
	"IMU_BUS_BACKEND":         "periph",
	"IMU_I2C_BUS":             "1",
	"IMU_AD0":                 false,
	"IMU_GYRO_FULL_SCALE":     250,
	"IMU_ACCEL_FULL_SCALE":    2,
	"IMU_BYPASS":              true,
	"IMU_FULL_BANDWIDTH":      true,
	"IMU_SAMPLE_INTERVAL":     100,
	"LOG_LEVEL":               "info",
	"MQTT_BROKER":             "tcp://localhost:1883",
	"MQTT_CLIENT_ID_PRODUCER": "imu-producer",
	"MQTT_CLIENT_ID_MONITOR":  "imu-monitor",
	"TOPIC_IMU":               "inertial/imu",
	"SERIAL_PORT":             "",
	"SERIAL_BAUD_RATE":        115200,
	"DISPLAY_ENABLED":         false,
	"DEBUG_SERVER_ADDR":       ":8081",
	"DEBUG_ALLOWED_WRITES":    "",
}

// Package-level state behind InitGlobal and Get. configOnce makes InitGlobal
// run once; configMu lets many readers call Get concurrently.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads a KEY=VALUE file and applies environment overrides. Lines
// starting with # are comments. An empty path skips the file and uses
// defaults and environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "config: read %s", configPath)
		}
		for _, k := range v.AllKeys() {
			if _, ok := defaults[strings.ToUpper(k)]; !ok {
				return nil, errors.Errorf("config: unknown key %q", strings.ToUpper(k))
			}
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	p := parser{v: v}
	cfg := &Config{
		BusBackend:           strings.ToLower(p.str("IMU_BUS_BACKEND")),
		I2CBus:               p.str("IMU_I2C_BUS"),
		AD0:                  p.boolean("IMU_AD0"),
		GyroFullScale:        p.integer("IMU_GYRO_FULL_SCALE"),
		AccelFullScale:       p.integer("IMU_ACCEL_FULL_SCALE"),
		Bypass:               p.boolean("IMU_BYPASS"),
		FullBandwidth:        p.boolean("IMU_FULL_BANDWIDTH"),
		IMUSampleInterval:    p.integer("IMU_SAMPLE_INTERVAL"),
		MQTTBroker:           p.str("MQTT_BROKER"),
		MQTTClientIDProducer: p.str("MQTT_CLIENT_ID_PRODUCER"),
		MQTTClientIDMonitor:  p.str("MQTT_CLIENT_ID_MONITOR"),
		TopicIMU:             p.str("TOPIC_IMU"),
		SerialPort:           p.str("SERIAL_PORT"),
		SerialBaudRate:       p.integer("SERIAL_BAUD_RATE"),
		DisplayEnabled:       p.boolean("DISPLAY_ENABLED"),
		DebugServerAddr:      p.str("DEBUG_SERVER_ADDR"),
	}
	if p.err != nil {
		return nil, p.err
	}

	lvl, err := logrus.ParseLevel(p.str("LOG_LEVEL"))
	if err != nil {
		return nil, errors.Wrap(err, "config: LOG_LEVEL")
	}
	cfg.LogLevel = lvl

	ranges, err := ParseRegisterRanges(p.str("DEBUG_ALLOWED_WRITES"))
	if err != nil {
		return nil, errors.Wrap(err, "config: DEBUG_ALLOWED_WRITES")
	}
	cfg.DebugAllowedWrites = ranges

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parser keeps the first conversion error so fromViper can read every key
// without checking each one.
type parser struct {
	v   *viper.Viper
	err error
}

func (p *parser) str(key string) string {
	return strings.TrimSpace(p.v.GetString(key))
}

func (p *parser) integer(key string) int {
	n, err := cast.ToIntE(p.v.Get(key))
	if err != nil && p.err == nil {
		p.err = errors.Errorf("config: invalid %s %q", key, p.v.GetString(key))
	}
	return n
}

func (p *parser) boolean(key string) bool {
	b, err := cast.ToBoolE(p.v.Get(key))
	if err != nil && p.err == nil {
		p.err = errors.Errorf("config: invalid %s %q", key, p.v.GetString(key))
	}
	return b
}

// validate checks values the tools cannot run with.
func (c *Config) validate() error {
	switch c.BusBackend {
	case "periph", "embd", "d2r2", "sim":
	default:
		return errors.Errorf("config: IMU_BUS_BACKEND must be periph, embd, d2r2 or sim, got %q", c.BusBackend)
	}
	if !oneOf(c.GyroFullScale, 250, 500, 1000, 2000) {
		return errors.Errorf("config: IMU_GYRO_FULL_SCALE must be 250, 500, 1000 or 2000, got %d", c.GyroFullScale)
	}
	if !oneOf(c.AccelFullScale, 2, 4, 8, 16) {
		return errors.Errorf("config: IMU_ACCEL_FULL_SCALE must be 2, 4, 8 or 16, got %d", c.AccelFullScale)
	}
	if c.IMUSampleInterval <= 0 {
		return errors.Errorf("config: IMU_SAMPLE_INTERVAL must be positive, got %d", c.IMUSampleInterval)
	}
	if c.SerialPort != "" && c.SerialBaudRate <= 0 {
		return errors.Errorf("config: SERIAL_BAUD_RATE must be positive, got %d", c.SerialBaudRate)
	}
	if c.MQTTBroker == "" {
		return errors.New("config: MQTT_BROKER is required")
	}
	return nil
}

func oneOf(v int, set ...int) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}

// InitGlobal loads the global configuration once. Later calls return nil
// without reloading.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration, or nil before InitGlobal.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
