package message

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// SampleEncoding names the wire form of a raw sample.
type SampleEncoding string

const (
	// EncodingBinary is the device frame: an unsigned 16-bit little-endian integer.
	EncodingBinary SampleEncoding = "binary"
	// EncodingText is a non-negative decimal integer, optionally surrounded by whitespace.
	EncodingText SampleEncoding = "text"
	// EncodingJSON is an object with a non-negative integer "value" field.
	EncodingJSON SampleEncoding = "json"
)

// FrameSize is the length of a binary sample frame.
const FrameSize = 2

// ParseSampleEncoding validates an encoding name from configuration.
func ParseSampleEncoding(s string) (SampleEncoding, error) {
	switch enc := SampleEncoding(s); enc {
	case EncodingBinary, EncodingText, EncodingJSON:
		return enc, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, s)
}

// DecodeSample turns one payload into a raw sample value.
func DecodeSample(enc SampleEncoding, data []byte) (int, error) {
	switch enc {
	case EncodingBinary:
		if len(data) != FrameSize {
			return 0, fmt.Errorf("%w: binary frame has %d bytes, want %d", ErrInvalidSample, len(data), FrameSize)
		}
		return DecodeFrame(data), nil

	case EncodingText:
		v, err := strconv.Atoi(string(bytes.TrimSpace(data)))
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInvalidSample, err)
		}
		if v < 0 {
			return 0, fmt.Errorf("%w: negative value %d", ErrInvalidSample, v)
		}
		return v, nil

	case EncodingJSON:
		msg, err := ParseDynamicJSON(data)
		if err != nil {
			return 0, err
		}
		f, ok := msg.GetFloat64("value")
		if !ok {
			return 0, fmt.Errorf("%w: value (got %s)", ErrMissingField, msg.GetFieldSnippet("value", 32))
		}
		if f != math.Trunc(f) || f > math.MaxInt32 || f < 0 {
			return 0, fmt.Errorf("%w: value %v is not a non-negative 32-bit integer", ErrInvalidSample, f)
		}
		return int(f), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEncoding, enc)
}

// DecodeFrame reads a binary frame. frame must hold at least FrameSize bytes.
func DecodeFrame(frame []byte) int {
	return int(binary.LittleEndian.Uint16(frame))
}

// EncodeFrame renders v as a binary frame.
func EncodeFrame(v uint16) []byte {
	frame := make([]byte, FrameSize)
	binary.LittleEndian.PutUint16(frame, v)
	return frame
}
