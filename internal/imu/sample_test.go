package imu

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/relabs-tech/imu_driver/internal/mpu9250"
)

func TestFromReading(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := FromReading("mpu9250@0x68", now, mpu9250.Sample{Ax: 1, Ay: 2, Az: 1000, Temp: 2500, Gx: -5, Gy: 6, Gz: 7})
	want := Sample{Source: "mpu9250@0x68", Time: now, Ax: 1, Ay: 2, Az: 1000, Temp: 2500, Gx: -5, Gy: 6, Gz: 7}
	if s != want {
		t.Fatalf("FromReading = %+v, want %+v", s, want)
	}
}

func TestVectors(t *testing.T) {
	s := Sample{Ax: 600, Ay: 0, Az: 800, Gx: 3, Gy: 4}
	if n := s.AccelNorm(); math.Abs(n-1000) > 1e-9 {
		t.Errorf("AccelNorm = %v, want 1000", n)
	}
	if n := s.Gyro().Norm(); math.Abs(n-5) > 1e-9 {
		t.Errorf("|gyro| = %v, want 5", n)
	}
	if c := (Sample{Temp: 2101}).Celsius(); math.Abs(c-21.01) > 1e-9 {
		t.Errorf("Celsius = %v", c)
	}
}

func TestJSONFieldNames(t *testing.T) {
	b, err := json.Marshal(Sample{Source: "sim", Az: 1000, Temp: 2100})
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"source":"sim"`, `"az":1000`, `"temp":2100`, `"gx":0`, `"time":`} {
		if !strings.Contains(string(b), key) {
			t.Errorf("%s missing %s", b, key)
		}
	}
}
