package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "imu_config.txt")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BusBackend != "periph" || cfg.I2CBus != "1" || cfg.AD0 {
		t.Errorf("bus settings = %q %q %v", cfg.BusBackend, cfg.I2CBus, cfg.AD0)
	}
	if cfg.GyroFullScale != 250 || cfg.AccelFullScale != 2 || !cfg.Bypass || !cfg.FullBandwidth {
		t.Errorf("imu settings = %+v", cfg)
	}
	if cfg.IMUSampleInterval != 100 || cfg.LogLevel != logrus.InfoLevel {
		t.Errorf("interval %d level %v", cfg.IMUSampleInterval, cfg.LogLevel)
	}
	if cfg.TopicIMU != "inertial/imu" || cfg.DebugServerAddr != ":8081" {
		t.Errorf("topic %q addr %q", cfg.TopicIMU, cfg.DebugServerAddr)
	}
	if len(cfg.DebugAllowedWrites) != 0 {
		t.Errorf("allowed writes = %v, want none", cfg.DebugAllowedWrites)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
# sensor on the second bus
IMU_BUS_BACKEND=sim
IMU_I2C_BUS=/dev/i2c-3
IMU_AD0=true
IMU_GYRO_FULL_SCALE=2000
IMU_ACCEL_FULL_SCALE=16
IMU_BYPASS=false
IMU_SAMPLE_INTERVAL=20
LOG_LEVEL=debug
TOPIC_IMU=lab/imu
SERIAL_PORT=/dev/ttyUSB0
SERIAL_BAUD_RATE=9600
DEBUG_ALLOWED_WRITES=0x1B-0x1D,0x37
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BusBackend != "sim" || cfg.I2CBus != "/dev/i2c-3" || !cfg.AD0 {
		t.Errorf("bus settings = %q %q %v", cfg.BusBackend, cfg.I2CBus, cfg.AD0)
	}
	if cfg.GyroFullScale != 2000 || cfg.AccelFullScale != 16 || cfg.Bypass {
		t.Errorf("imu settings = %d %d %v", cfg.GyroFullScale, cfg.AccelFullScale, cfg.Bypass)
	}
	if cfg.IMUSampleInterval != 20 || cfg.LogLevel != logrus.DebugLevel {
		t.Errorf("interval %d level %v", cfg.IMUSampleInterval, cfg.LogLevel)
	}
	if cfg.TopicIMU != "lab/imu" || cfg.SerialPort != "/dev/ttyUSB0" || cfg.SerialBaudRate != 9600 {
		t.Errorf("topic %q serial %q@%d", cfg.TopicIMU, cfg.SerialPort, cfg.SerialBaudRate)
	}
	if got := cfg.DebugAllowedWrites.String(); got != "0x1B-0x1D,0x37" {
		t.Errorf("allowed writes = %s", got)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "IMU_GYRO_FULL_SCALE=500\n")
	t.Setenv("IMU_GYRO_FULL_SCALE", "1000")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GyroFullScale != 1000 {
		t.Errorf("GyroFullScale = %d, want 1000", cfg.GyroFullScale)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"unknown key":      "IMU_FOO=1\n",
		"bad gyro":         "IMU_GYRO_FULL_SCALE=300\n",
		"bad accel":        "IMU_ACCEL_FULL_SCALE=3\n",
		"not a number":     "IMU_SAMPLE_INTERVAL=fast\n",
		"zero interval":    "IMU_SAMPLE_INTERVAL=0\n",
		"bad backend":      "IMU_BUS_BACKEND=spi\n",
		"bad bool":         "IMU_BYPASS=maybe\n",
		"bad level":        "LOG_LEVEL=loud\n",
		"bad write ranges": "DEBUG_ALLOWED_WRITES=0x1D-0x1B\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Errorf("Load(%q) succeeded", strings.TrimSpace(body))
			}
		})
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestRegisterRanges(t *testing.T) {
	r, err := ParseRegisterRanges(" 0x1B-0x1D , 0x37,107 ")
	if err != nil {
		t.Fatal(err)
	}
	allowed := map[byte]bool{0x1A: false, 0x1B: true, 0x1C: true, 0x1D: true, 0x1E: false, 0x37: true, 0x6B: true, 0x75: false}
	for reg, want := range allowed {
		if got := r.Allows(reg); got != want {
			t.Errorf("Allows(0x%02X) = %v, want %v", reg, got, want)
		}
	}

	empty, err := ParseRegisterRanges("")
	if err != nil || empty.Allows(0x6B) {
		t.Errorf("empty ranges: %v, %v", empty, err)
	}

	for _, bad := range []string{"0x100", "zz", "0x10-", "0x20-0x10"} {
		if _, err := ParseRegisterRanges(bad); err == nil {
			t.Errorf("ParseRegisterRanges(%q) succeeded", bad)
		}
	}
}
