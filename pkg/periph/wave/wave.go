// Package wave synthesizes sample tables for the waveform DAC.
package wave

import (
	"errors"
	"fmt"
	"math"
)

// Shape is the waveform shape.
type Shape byte

// Supported shapes.
const (
	Sine Shape = iota
	Square
	Triangle
	Sawtooth
)

var shapeNames = [...]string{"sine", "square", "triangle", "sawtooth"}

// String implements fmt.Stringer.
func (s Shape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return fmt.Sprintf("shape(%d)", byte(s))
}

// ParseShape parses a shape name.
func ParseShape(name string) (Shape, error) {
	for n, s := range shapeNames {
		if s == name {
			return Shape(n), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownShape, name)
}

// Table is a sample table, one 8-bit sample per point.
type Table []byte

// Limits of a table.
const (
	MinPoints     = 2
	MaxPoints     = 4000
	DefaultPoints = 128
)

var (
	// ErrUnknownShape indicates the shape is not supported.
	ErrUnknownShape = errors.New("unknown shape")
	// ErrPointsOutOfRange indicates the number of points is not supported.
	ErrPointsOutOfRange = errors.New("points out of range")
	// ErrLevelOverflow indicates amplitude plus offset exceeds the DAC range.
	ErrLevelOverflow = errors.New("level overflow")
)

// Params describes a waveform.
// Amplitude is peak-to-peak and Offset is the lowest level, both in DAC counts.
type Params struct {
	Shape     Shape
	Amplitude byte
	Offset    byte
	Points    int
}

// DefaultParams is a full scale sine.
func DefaultParams() Params {
	return Params{Shape: Sine, Amplitude: 0xff, Points: DefaultPoints}
}

// Validate checks the parameters.
func (p Params) Validate() error {
	if p.Shape > Sawtooth {
		return fmt.Errorf("%w: %d", ErrUnknownShape, byte(p.Shape))
	}
	if p.Points != 0 && (p.Points < MinPoints || p.Points > MaxPoints) {
		return fmt.Errorf("%w: %d", ErrPointsOutOfRange, p.Points)
	}
	if int(p.Amplitude)+int(p.Offset) > 0xff {
		return fmt.Errorf("%w: amplitude %d offset %d", ErrLevelOverflow, p.Amplitude, p.Offset)
	}
	return nil
}

// Synthesize builds the sample table.
// Points of 0 means DefaultPoints.
func Synthesize(p Params) (Table, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	n := p.Points
	if n == 0 {
		n = DefaultPoints
	}
	t := make(Table, n)
	amp := float64(p.Amplitude)
	for i := range t {
		var level float64
		phase := float64(i) / float64(n)
		switch p.Shape {
		case Sine:
			level = (1 - math.Cos(2*math.Pi*phase)) / 2
		case Square:
			if i < n/2 {
				level = 1
			}
		case Triangle:
			if phase < 0.5 {
				level = 2 * phase
			} else {
				level = 2 * (1 - phase)
			}
		case Sawtooth:
			level = float64(i) / float64(n-1)
		}
		t[i] = p.Offset + byte(math.Round(level*amp))
	}
	return t, nil
}

// Min returns the lowest sample.
func (t Table) Min() byte {
	if len(t) == 0 {
		return 0
	}
	m := t[0]
	for _, v := range t[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Max returns the highest sample.
func (t Table) Max() byte {
	var m byte
	for _, v := range t {
		if v > m {
			m = v
		}
	}
	return m
}
