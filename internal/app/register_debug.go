// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"

	"github.com/relabs-tech/fall_detector/internal/config"
	"github.com/relabs-tech/fall_detector/internal/sensors"
)

// RunRegisterDebug dumps the MPU6050 register map with live values, for
// board bring-up. With dump=false it only prints WHO_AM_I and the
// configured ranges.
func RunRegisterDebug(dump bool) error {
	cfg := config.Get()

	m, err := sensors.NewMPU6050(cfg.IMUI2CBus, cfg.IMUI2CAddr, cfg.IMUAccelRange, cfg.IMUGyroRange)
	if err != nil {
		return err
	}
	defer m.Close()

	if !dump {
		s, err := m.ReadSample()
		if err != nil {
			return err
		}
		log.Printf("sample: ax=%+.3f ay=%+.3f az=%+.3f gx=%+.1f gy=%+.1f gz=%+.1f",
			s.Ax, s.Ay, s.Az, s.Gx, s.Gy, s.Gz)
		return nil
	}

	for _, reg := range sensors.MPU6050RegisterMap() {
		val, err := m.ReadReg(reg.Address)
		if err != nil {
			log.Printf("0x%02X %-18s read error: %v", reg.Address, reg.Name, err)
			continue
		}
		fmt.Printf("0x%02X %-18s = 0x%02X  %s (%s)\n",
			reg.Address, reg.Name, val, reg.Description, reg.Access)
		for _, bf := range reg.BitFields {
			fmt.Printf("      %-6s %-14s %s", bf.Bits, bf.Name, bf.Description)
			if bf.Values != "" {
				fmt.Printf(" [%s]", bf.Values)
			}
			fmt.Println()
		}
	}
	return nil
}
