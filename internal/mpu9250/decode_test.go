package mpu9250

import (
	"testing"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/relabs-tech/imu_driver/internal/regbus"
)

func TestWord(t *testing.T) {
	cases := []struct {
		b    []byte
		want int16
	}{
		{[]byte{0x00, 0x01}, 1},
		{[]byte{0xFF, 0xFF}, -1},
		{[]byte{0x80, 0x00}, -32768},
		{[]byte{0x7F, 0xFF}, 32767},
		{[]byte{0x01, 0x00}, 256},
	}
	for _, c := range cases {
		if got := word(c.b); got != c.want {
			t.Errorf("word(%x) = %d, want %d", c.b, got, c.want)
		}
	}
}

func TestFloorDiv(t *testing.T) {
	cases := []struct{ a, b, want int }{
		{7, 3, 2},
		{-7, 3, -3},
		{6, 3, 2},
		{-6, 3, -2},
		{0, 3, 0},
		{-1000, 131, -8},
	}
	for _, c := range cases {
		if got := floorDiv(c.a, c.b); got != c.want {
			t.Errorf("floorDiv(%d, %d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestConvert(t *testing.T) {
	cases := []struct {
		name   string
		raw    Raw
		as, gs int
		want   Sample
	}{
		{"zero", Raw{}, 16384, 131, Sample{Temp: 2100}},
		{"one g on Z", Raw{Az: 16384}, 16384, 131, Sample{Az: 1000, Temp: 2100}},
		{"one dps on X", Raw{Gx: 131}, 16384, 131, Sample{Gx: 1000, Temp: 2100}},
		{"temperature 3", Raw{Temp: 3}, 16384, 131, Sample{Temp: 2101}},
		{"negative rounds down", Raw{Ax: -1, Temp: -1, Gz: -1}, 16384, 131, Sample{Ax: -1, Temp: 2099, Gz: -8}},
		{"16 g range", Raw{Ay: -2048}, 2048, 16, Sample{Ay: -1000, Temp: 2100}},
		{"2000 dps saturated", Raw{Gy: 32767}, 16384, 16, Sample{Gy: 2047937, Temp: 2100}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Convert(c.raw, c.as, c.gs); got != c.want {
				t.Errorf("Convert(%+v) = %+v, want %+v", c.raw, got, c.want)
			}
		})
	}
}

func TestSense(t *testing.T) {
	sim := regbus.NewSim(AddrAD0Low)
	d, err := New(sim, nil)
	if err != nil {
		t.Fatal(err)
	}
	sim.SetBurst([7]int16{0, 0, 16384, 1200, 131, -131, 0})
	s, err := d.Sense()
	if err != nil {
		t.Fatal(err)
	}
	want := Sample{Az: 1000, Temp: 2500, Gx: 1000, Gy: -1000}
	if s != want {
		t.Errorf("Sense = %+v, want %+v", s, want)
	}

	if err := d.SetAccelFullScale(4); err != nil {
		t.Fatal(err)
	}
	if s, err = d.Sense(); err != nil {
		t.Fatal(err)
	}
	if s.Az != 2000 {
		t.Errorf("Az at ±4g = %d, want 2000", s.Az)
	}
}

func TestSenseTemperatureOnlyBurst(t *testing.T) {
	sim := regbus.NewSim(AddrAD0Low)
	d, err := New(sim, nil)
	if err != nil {
		t.Fatal(err)
	}
	sim.SetBurst([7]int16{0, 0, 0, 3, 0, 0, 0})
	s, err := d.Sense()
	if err != nil {
		t.Fatal(err)
	}
	if s != (Sample{Temp: 2101}) {
		t.Errorf("Sense = %+v, want only Temp 2101", s)
	}
}

func TestSenseFailures(t *testing.T) {
	sim := regbus.NewSim(AddrAD0Low)
	d, err := New(sim, nil)
	if err != nil {
		t.Fatal(err)
	}
	sim.SetBurst([7]int16{1, 2, 3, 4, 5, 6, 7})

	sim.ShortRead(13)
	if _, err := d.Sense(); !errors.Is(err, ErrDeviceIO) {
		t.Errorf("short read err = %v, want ErrDeviceIO", err)
	}
	sim.ShortRead(0)

	nak := errors.New("nak")
	sim.FailOn(0x44, nak)
	_, err = d.ReadRaw()
	if !errors.Is(err, ErrDeviceIO) {
		t.Fatalf("failed read err = %v, want ErrDeviceIO", err)
	}
	if errors.Cause(err) != nak {
		t.Errorf("cause = %v, want %v", errors.Cause(err), nak)
	}
	var ioErr *IOError
	if !errors.As(err, &ioErr) || ioErr.Reg != RegAccelXOutH {
		t.Errorf("err = %#v, want *IOError at 0x3B", err)
	}
}

func TestReadRawSingleBurst(t *testing.T) {
	pb := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: 0x69, W: []byte{RegPwrMgmt1, 0x01}},
		{Addr: 0x69, W: []byte{RegIntPinCfg}, R: []byte{0x10}},
		{Addr: 0x69, W: []byte{RegIntPinCfg, 0x10}},
		{Addr: 0x69, W: []byte{RegGyroConfig}, R: []byte{0x00}},
		{Addr: 0x69, W: []byte{RegGyroConfig, 0x08}},
		{Addr: 0x69, W: []byte{RegAccelConfig}, R: []byte{0x18}},
		{Addr: 0x69, W: []byte{RegAccelConfig, 0x08}},
		{Addr: 0x69, W: []byte{RegAccelXOutH}, R: []byte{
			0x00, 0x01, 0xFF, 0xFF, 0x80, 0x00,
			0x00, 0x03,
			0x00, 0x41, 0xFF, 0xBF, 0x00, 0x00,
		}},
	}}
	d, err := New(regbus.NewPeriph(pb), &Opts{AD0: true, GyroFullScale: 500, AccelFullScale: 4})
	if err != nil {
		t.Fatal(err)
	}
	r, err := d.ReadRaw()
	if err != nil {
		t.Fatal(err)
	}
	want := Raw{Ax: 1, Ay: -1, Az: -32768, Temp: 3, Gx: 65, Gy: -65}
	if r != want {
		t.Errorf("ReadRaw = %+v, want %+v", r, want)
	}
	s := Convert(r, d.AccelSensitivity(), d.GyroSensitivity())
	if s.Az != -4000 || s.Gx != 1000 || s.Gy != -1000 || s.Temp != 2101 {
		t.Errorf("Convert = %+v", s)
	}
	if err := pb.Close(); err != nil {
		t.Fatal(err)
	}
}
