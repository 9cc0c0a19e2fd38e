package telemetry

import (
	"errors"
	"math"
	"strings"
	"testing"
)

// ============================================================================
// Frame Parsing
// ============================================================================

func TestParseFrame_ValidFrames(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  float64
	}{
		{"plain reading", "Current reading: 12.34 A", 12.34},
		{"integer value", "Current reading: 7 A", 7.0},
		{"zero", "Current reading: 0.00 A", 0.0},
		{"negative value", "Current reading: -3.21 A", -3.21},
		{"trailing newline", "Current reading: 1.50 A\r\n", 1.50},
		{"nul padding", "Current reading: 2.75 A\x00\x00\x00", 2.75},
		{"leading whitespace", "  Current reading: 0.42 A", 0.42},
		{"scientific notation", "Current reading: 1.2e1 A", 12.0},
		{"trailing garbage after unit", "Current reading: 5.00 A extra", 5.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFrame([]byte(tt.frame))
			if err != nil {
				t.Fatalf("ParseFrame(%q) error = %v, want nil", tt.frame, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ParseFrame(%q) = %v, want %v", tt.frame, got, tt.want)
			}
		})
	}
}

func TestParseFrame_EmptyFrames(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
	}{
		{"nil", nil},
		{"empty", []byte{}},
		{"only whitespace", []byte("  \r\n")},
		{"only nul bytes", []byte{0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFrame(tt.frame)
			if !errors.Is(err, ErrFrameEmpty) {
				t.Errorf("ParseFrame() error = %v, want ErrFrameEmpty", err)
			}
		})
	}
}

func TestParseFrame_MalformedFrames(t *testing.T) {
	tests := []struct {
		name  string
		frame string
	}{
		{"garbage", "garbage"},
		{"missing prefix", "reading: 12.34 A"},
		{"missing value", "Current reading:  A"},
		{"missing unit", "Current reading: 12.34"},
		{"wrong unit", "Current reading: 12.34 V"},
		{"non numeric value", "Current reading: twelve A"},
		{"prefix mid frame", "noise Current reading: 1.00 A"},
		{"torn frame", "Current read"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFrame([]byte(tt.frame))
			if !errors.Is(err, ErrFrameMalformed) {
				t.Errorf("ParseFrame(%q) error = %v, want ErrFrameMalformed", tt.frame, err)
			}
		})
	}
}

func TestParseFrame_LongFrameTruncatedInError(t *testing.T) {
	frame := "X" + strings.Repeat("y", 200)

	_, err := ParseFrame([]byte(frame))
	if !errors.Is(err, ErrFrameMalformed) {
		t.Fatalf("ParseFrame() error = %v, want ErrFrameMalformed", err)
	}
	if len(err.Error()) > 150 {
		t.Errorf("error message not truncated, len = %d", len(err.Error()))
	}
}
