// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"bufio"
	"io"
	"log"
	"strings"
	"sync"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"
)

// Watcher reads NMEA sentences from a serial GPS and keeps the most
// recent RMC fix so fall alerts can carry a position.
type Watcher struct {
	mu      sync.RWMutex
	last    Fix
	haveFix bool
	port    io.ReadWriteCloser
}

// NewWatcher opens the GPS serial port and starts the read loop.
func NewWatcher(portName string, baudRate uint) (*Watcher, error) {
	serialOpts := serial.OpenOptions{
		PortName:        portName,
		BaudRate:        baudRate,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return nil, err
	}
	log.Printf("gps: serial port opened on %s at %d baud", portName, baudRate)

	w := &Watcher{port: port}
	go w.readLoop()
	return w, nil
}

// Latest returns the most recent fix, if any has been parsed yet.
func (w *Watcher) Latest() (Fix, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.last, w.haveFix
}

// Close stops the watcher by closing the serial port.
func (w *Watcher) Close() error {
	return w.port.Close()
}

func (w *Watcher) readLoop() {
	reader := bufio.NewReader(w.port)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Printf("gps: read error, stopping watcher: %v", err)
			return
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			// noisy GPS or partial sentences; skip silently
			continue
		}

		if sentence.DataType() != nmea.TypeRMC {
			// ignore other sentence types (GGA, GSA, etc.)
			continue
		}
		m := sentence.(nmea.RMC)

		w.mu.Lock()
		w.last = Fix{
			Time:       m.Time.String(),
			Date:       m.Date.String(),
			Latitude:   m.Latitude,
			Longitude:  m.Longitude,
			SpeedKnots: m.Speed,
			CourseDeg:  m.Course,
			Validity:   string(m.Validity),
		}
		w.haveFix = true
		w.mu.Unlock()
	}
}
