// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/binary"
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/fall_detector/internal/imu"
)

// MPU6050 registers used by the driver.
const (
	regSmplrtDiv   = 0x19
	regConfig      = 0x1A
	regGyroConfig  = 0x1B
	regAccelConfig = 0x1C
	regAccelXoutH  = 0x3B
	regPwrMgmt1    = 0x6B
	regWhoAmI      = 0x75

	whoAmIMPU6050 = 0x68
)

// Sensitivity per full-scale range selection, from the datasheet.
var (
	accelSensLSB = [4]float64{16384, 8192, 4096, 2048} // LSB/g
	gyroSensLSB  = [4]float64{131, 65.5, 32.8, 16.4}   // LSB/(°/s)
)

// MPU6050 drives the sensor over I2C with raw register access.
type MPU6050 struct {
	bus       i2c.BusCloser
	dev       i2c.Dev
	accelSens float64
	gyroSens  float64
}

// NewMPU6050 opens the I2C bus, wakes the sensor and programs the
// requested full-scale ranges. busName "" selects the first available bus.
func NewMPU6050(busName string, addr uint16, accelRange, gyroRange byte) (*MPU6050, error) {
	if accelRange > 3 || gyroRange > 3 {
		return nil, fmt.Errorf("MPU6050: range selection must be 0-3 (accel=%d gyro=%d)", accelRange, gyroRange)
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("MPU6050: periph host init: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("MPU6050: I2C open (%q): %w", busName, err)
	}

	m := &MPU6050{
		bus:       bus,
		dev:       i2c.Dev{Bus: bus, Addr: addr},
		accelSens: accelSensLSB[accelRange],
		gyroSens:  gyroSensLSB[gyroRange],
	}

	who, err := m.ReadReg(regWhoAmI)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("MPU6050: WHO_AM_I read at 0x%02X: %w", addr, err)
	}
	if who != whoAmIMPU6050 {
		log.Printf("MPU6050: WARNING: unexpected WHO_AM_I 0x%02X at 0x%02X (expected 0x%02X)", who, addr, whoAmIMPU6050)
	}

	// Wake from sleep, internal 8MHz clock.
	if err := m.WriteReg(regPwrMgmt1, 0x00); err != nil {
		bus.Close()
		return nil, fmt.Errorf("MPU6050: wake: %w", err)
	}
	time.Sleep(50 * time.Millisecond)

	// Full-scale ranges live in bits 4:3 of the config registers.
	if err := m.WriteReg(regAccelConfig, accelRange<<3); err != nil {
		bus.Close()
		return nil, fmt.Errorf("MPU6050: set accel range: %w", err)
	}
	log.Printf("MPU6050: accelerometer range set to %d (±%dg)", accelRange, []int{2, 4, 8, 16}[accelRange])

	if err := m.WriteReg(regGyroConfig, gyroRange<<3); err != nil {
		bus.Close()
		return nil, fmt.Errorf("MPU6050: set gyro range: %w", err)
	}
	log.Printf("MPU6050: gyroscope range set to %d (±%d°/s)", gyroRange, []int{250, 500, 1000, 2000}[gyroRange])

	return m, nil
}

// WriteReg writes one register.
func (m *MPU6050) WriteReg(reg, val byte) error {
	return m.dev.Tx([]byte{reg, val}, nil)
}

// ReadReg reads one register.
func (m *MPU6050) ReadReg(reg byte) (byte, error) {
	var buf [1]byte
	if err := m.dev.Tx([]byte{reg}, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadSample burst-reads accel, temperature and gyro (14 bytes starting
// at ACCEL_XOUT_H) and returns the scaled sample.
func (m *MPU6050) ReadSample() (imu.Sample, error) {
	var buf [14]byte
	if err := m.dev.Tx([]byte{regAccelXoutH}, buf[:]); err != nil {
		return imu.Sample{}, fmt.Errorf("MPU6050: burst read: %w", err)
	}
	return decodeSample(buf[:], m.accelSens, m.gyroSens, time.Now()), nil
}

// Close releases the I2C bus.
func (m *MPU6050) Close() error {
	return m.bus.Close()
}

// decodeSample converts the raw 14-byte burst (big-endian int16 pairs:
// accel XYZ, temp, gyro XYZ) into a scaled sample.
func decodeSample(buf []byte, accelSens, gyroSens float64, t time.Time) imu.Sample {
	i16 := func(off int) int16 {
		return int16(binary.BigEndian.Uint16(buf[off : off+2]))
	}
	return imu.Sample{
		Time: t,
		Ax:   float64(i16(0)) / accelSens,
		Ay:   float64(i16(2)) / accelSens,
		Az:   float64(i16(4)) / accelSens,
		// buf[6:8] is the die temperature, unused here
		Gx: float64(i16(8)) / gyroSens,
		Gy: float64(i16(10)) / gyroSens,
		Gz: float64(i16(12)) / gyroSens,
	}
}
