package timeutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Layouts used for wire timestamps.
const (
	RFC3339Millis = "2006-01-02T15:04:05.000Z07:00"
	RFC3339Micros = "2006-01-02T15:04:05.000000Z07:00"
)

// Time wraps time.Time so API payloads always carry UTC millisecond precision.
// JSON encodes as a quoted RFC 3339 string; CBOR encodes as tag 0 plus text.
type Time struct {
	time.Time
}

// NewTime wraps t.
func NewTime(t time.Time) Time { return Time{Time: t} }

// Now returns the current time.
func Now() Time { return Time{Time: time.Now()} }

func (t Time) format() string {
	return t.UTC().Format(RFC3339Millis)
}

// MarshalJSON implements json.Marshaler.
func (t Time) MarshalJSON() ([]byte, error) {
	s := t.format()
	b := make([]byte, 0, len(s)+2)
	b = append(b, '"')
	b = append(b, s...)
	b = append(b, '"')
	return b, nil
}

// UnmarshalJSON implements json.Unmarshaler. A JSON null leaves t unchanged.
func (t *Time) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("timeutil: invalid JSON time %q", s)
	}
	parsed, err := parse(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalCBOR implements cbor.Marshaler using tag 0 (RFC 3339 date/time string).
func (t Time) MarshalCBOR() ([]byte, error) {
	s := t.format()
	b := make([]byte, 0, len(s)+3)
	b = append(b, 0xc0)
	return appendCBORTextString(b, s), nil
}

// UnmarshalCBOR implements cbor.Unmarshaler. Both tagged and bare text strings are accepted.
func (t *Time) UnmarshalCBOR(data []byte) error {
	if len(data) == 0 {
		return errors.New("timeutil: empty CBOR data")
	}
	if data[0] == 0xc0 {
		data = data[1:]
	}
	s, err := decodeCBORTextString(data)
	if err != nil {
		return err
	}
	parsed, err := parse(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func parse(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, RFC3339Millis, time.RFC3339} {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("timeutil: cannot parse %q as RFC 3339", strings.TrimSpace(s))
}

func appendCBORTextString(dst []byte, s string) []byte {
	n := len(s)
	switch {
	case n < 24:
		dst = append(dst, 0x60+byte(n))
	case n <= 0xff:
		dst = append(dst, 0x78, byte(n))
	default:
		dst = append(dst, 0x79, byte(n>>8), byte(n))
	}
	return append(dst, s...)
}

func decodeCBORTextString(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("timeutil: empty CBOR text string")
	}
	if data[0]>>5 != 3 {
		return "", fmt.Errorf("timeutil: expected CBOR text string, got major type %d", data[0]>>5)
	}

	info := data[0] & 0x1f
	var n, off int
	switch {
	case info < 24:
		n, off = int(info), 1
	case info == 24:
		if len(data) < 2 {
			return "", errors.New("timeutil: truncated CBOR length")
		}
		n, off = int(data[1]), 2
	case info == 25:
		if len(data) < 3 {
			return "", errors.New("timeutil: truncated CBOR length")
		}
		n, off = int(data[1])<<8|int(data[2]), 3
	default:
		return "", fmt.Errorf("timeutil: unsupported CBOR length encoding 0x%02x", info)
	}

	if len(data)-off < n {
		return "", errors.New("timeutil: truncated CBOR text string")
	}
	return string(data[off : off+n]), nil
}
