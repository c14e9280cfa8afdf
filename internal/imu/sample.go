package imu

import (
	"math"
	"time"
)

// Sample is a single scaled IMU reading: acceleration in g, angular
// velocity in degrees per second.
type Sample struct {
	Time time.Time `json:"time"`

	Ax float64 `json:"ax"` // accel, g
	Ay float64 `json:"ay"`
	Az float64 `json:"az"`

	Gx float64 `json:"gx"` // gyro, deg/s
	Gy float64 `json:"gy"`
	Gz float64 `json:"gz"`
}

// AccelMag returns the acceleration magnitude |a| in g.
func (s Sample) AccelMag() float64 {
	return math.Sqrt(s.Ax*s.Ax + s.Ay*s.Ay + s.Az*s.Az)
}

// GyroMag returns the angular speed magnitude |ω| in deg/s.
func (s Sample) GyroMag() float64 {
	return math.Sqrt(s.Gx*s.Gx + s.Gy*s.Gy + s.Gz*s.Gz)
}

// Source is anything that can provide IMU samples over time.
// Implementations: real MPU6050 source, mock source.
type Source interface {
	Next() (Sample, error)
}
