// Package recorder writes labeled IMU sessions as CSV-like .txt files for
// offline characterization. Labels are ADL, FALL or NONE. Because a human
// labeler reacts late, the last pre-window of samples is kept in a ring
// and can be retroactively relabeled when a FALL label arrives.
package recorder

import (
	"bufio"
	"fmt"
	"io"

	"github.com/relabs-tech/fall_detector/internal/imu"
)

// Header is the column layout of a labeled session file.
const Header = "t,ax,ay,az,gx,gy,gz,a_mag,w_mag,label,event_id,label_change"

// RetroMode selects when the ring buffer is retroactively relabeled.
type RetroMode string

const (
	RetroOff      RetroMode = "off"       // never
	RetroFallOnly RetroMode = "fall_only" // only when switching to FALL
	RetroAll      RetroMode = "all"       // on every label change
)

// Row is one recorded sample with its label state.
type Row struct {
	T           float64
	Ax, Ay, Az  float64
	Gx, Gy, Gz  float64
	AMag, WMag  float64
	Label       string
	EventID     int
	LabelChange string
}

func (r *Row) write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%.6f,%.6f,%.6f,%.6f,%.2f,%.2f,%.2f,%.6f,%.2f,%s,%d,%s\n",
		r.T, r.Ax, r.Ay, r.Az, r.Gx, r.Gy, r.Gz, r.AMag, r.WMag, r.Label, r.EventID, r.LabelChange)
	return err
}

// Recorder buffers the last preSamples rows for retro-labeling and
// streams everything older to the underlying writer.
type Recorder struct {
	w    *bufio.Writer
	pre  int
	mode RetroMode

	ring          []*Row
	label         string
	eventID       int
	pendingChange string
}

// New writes the header and returns a recorder. preSamples 0 disables
// the retro-label ring.
func New(w io.Writer, preSamples int, mode RetroMode) (*Recorder, error) {
	switch mode {
	case RetroOff, RetroFallOnly, RetroAll:
	default:
		return nil, fmt.Errorf("recorder: unknown retro mode %q", mode)
	}
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, Header); err != nil {
		return nil, fmt.Errorf("recorder: write header: %w", err)
	}
	return &Recorder{
		w:     bw,
		pre:   preSamples,
		mode:  mode,
		label: "NONE",
	}, nil
}

// Label returns the current label.
func (r *Recorder) Label() string { return r.label }

// EventID returns the current fall event counter.
func (r *Recorder) EventID() int { return r.eventID }

// SetLabel switches the active label. Switching to FALL opens a new
// event. Depending on the retro mode, the buffered tail is relabeled to
// compensate for labeler reaction time. Returns the "old->new" marker
// when the label actually changed, "" otherwise.
func (r *Recorder) SetLabel(label string) (string, error) {
	switch label {
	case "ADL", "FALL", "NONE":
	default:
		return "", fmt.Errorf("recorder: unknown label %q", label)
	}
	if label == r.label {
		return "", nil
	}

	if label == "FALL" {
		r.eventID++
	}
	change := r.label + "->" + label
	r.label = label

	retro := r.mode == RetroAll || (r.mode == RetroFallOnly && label == "FALL")
	if r.pre > 0 && retro && len(r.ring) > 0 {
		for i := range r.ring {
			r.ring[i].Label = label
			r.ring[i].EventID = r.eventID
			r.ring[i].LabelChange = ""
		}
		// mark the change on the newest relabeled row
		r.ring[len(r.ring)-1].LabelChange = change
		return change, nil
	}

	// No retro rewrite: the marker goes on the next recorded row.
	r.pendingChange = change
	return change, nil
}

// Add records one sample at t seconds since session start.
func (r *Recorder) Add(t float64, s imu.Sample) error {
	row := &Row{
		T:  t,
		Ax: s.Ax, Ay: s.Ay, Az: s.Az,
		Gx: s.Gx, Gy: s.Gy, Gz: s.Gz,
		AMag:        s.AccelMag(),
		WMag:        s.GyroMag(),
		Label:       r.label,
		EventID:     r.eventID,
		LabelChange: r.pendingChange,
	}
	r.pendingChange = ""

	if r.pre == 0 {
		return row.write(r.w)
	}

	r.ring = append(r.ring, row)
	for len(r.ring) > r.pre {
		if err := r.ring[0].write(r.w); err != nil {
			return err
		}
		r.ring = r.ring[1:]
	}
	return nil
}

// Flush drains the ring and the buffered writer. Call on shutdown.
func (r *Recorder) Flush() error {
	for _, row := range r.ring {
		if err := row.write(r.w); err != nil {
			return err
		}
	}
	r.ring = r.ring[:0]
	return r.w.Flush()
}
