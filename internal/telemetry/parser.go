package telemetry

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// framePattern matches the sensor's fixed line format. The numeric field
// accepts an optional sign, a fractional part, and scientific notation,
// all of which strconv.ParseFloat understands.
var framePattern = regexp.MustCompile(`^Current reading:\s+(-?[0-9]+(?:\.[0-9]+)?(?:[eE][+-]?[0-9]+)?)\s+A`)

// frameCutset is what gets trimmed from both ends of a raw frame before
// matching: NUL padding from the read buffer plus line-ending whitespace.
const frameCutset = "\x00 \t\r\n"

// maxFrameQuote caps how much of a bad frame is echoed into error
// messages and logs.
const maxFrameQuote = 64

// ParseFrame extracts the current value in amperes from a raw serial
// frame.
//
// The frame must match the sensor's line format "Current reading: <v> A"
// after NUL bytes and surrounding whitespace are stripped. Trailing bytes
// after the unit are tolerated; the sensor occasionally appends garbage
// when lines tear.
//
// Parameters:
//   - frame: raw bytes as read from the serial port
//
// Returns:
//   - float64: the extracted value in amperes
//   - error: ErrFrameEmpty if nothing remains after trimming,
//     ErrFrameMalformed if the frame does not match the line format
func ParseFrame(frame []byte) (float64, error) {
	line := strings.Trim(string(frame), frameCutset)
	if line == "" {
		return 0, ErrFrameEmpty
	}

	match := framePattern.FindStringSubmatch(line)
	if match == nil {
		return 0, fmt.Errorf("%w: %q", ErrFrameMalformed, quoteFrame(line))
	}

	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrFrameMalformed, quoteFrame(line), err)
	}

	return value, nil
}

// quoteFrame truncates a frame for safe inclusion in error messages.
func quoteFrame(line string) string {
	if len(line) > maxFrameQuote {
		return line[:maxFrameQuote] + "..."
	}
	return line
}
