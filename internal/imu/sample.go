package imu

import (
	"fmt"
	"time"

	"github.com/golang/geo/r3"

	"github.com/relabs-tech/imu_driver/internal/mpu9250"
)

// Sample is one decoded reading as published on the wire.
type Sample struct {
	Source string    `json:"source"` // device label, e.g. "mpu9250@0x68"
	Time   time.Time `json:"time"`

	Ax int `json:"ax"` // accel, milli-g
	Ay int `json:"ay"`
	Az int `json:"az"`

	Temp int `json:"temp"` // centi-degrees Celsius

	Gx int `json:"gx"` // gyro, milli-degrees/s
	Gy int `json:"gy"`
	Gz int `json:"gz"`
}

// FromReading stamps a driver reading with its source and time.
func FromReading(source string, t time.Time, r mpu9250.Sample) Sample {
	return Sample{
		Source: source,
		Time:   t,
		Ax:     r.Ax, Ay: r.Ay, Az: r.Az,
		Temp: r.Temp,
		Gx:   r.Gx, Gy: r.Gy, Gz: r.Gz,
	}
}

// Accel returns the acceleration vector in milli-g.
func (s Sample) Accel() r3.Vector {
	return r3.Vector{X: float64(s.Ax), Y: float64(s.Ay), Z: float64(s.Az)}
}

// Gyro returns the angular rate vector in milli-degrees/s.
func (s Sample) Gyro() r3.Vector {
	return r3.Vector{X: float64(s.Gx), Y: float64(s.Gy), Z: float64(s.Gz)}
}

// AccelNorm is |a| in milli-g; about 1000 at rest.
func (s Sample) AccelNorm() float64 {
	return s.Accel().Norm()
}

// Celsius converts Temp to degrees.
func (s Sample) Celsius() float64 {
	return float64(s.Temp) / 100
}

func (s Sample) String() string {
	return fmt.Sprintf("ax=%6d ay=%6d az=%6d mg  t=%6.2f°C  gx=%8d gy=%8d gz=%8d mdps",
		s.Ax, s.Ay, s.Az, s.Celsius(), s.Gx, s.Gy, s.Gz)
}

// Source yields consecutive samples.
type Source interface {
	Next() (Sample, error)
}
