// Package sysctl decodes the output of `sysctl -b`, which is the raw values of
// the requested MIBs concatenated with no delimiters, in the router's native
// byte order and C integer widths.
package sysctl

import (
	"encoding/binary"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/rileyhilliard/pfdash/internal/errors"
)

var (
	// ErrEnd means the stream ended exactly on an integer boundary. Callers
	// reading a variable-length sequence treat it as the end of the sequence.
	ErrEnd = stderrors.New("end of sysctl stream")

	// ErrCorruptStream means the stream ended part way through an integer.
	ErrCorruptStream = stderrors.New("sysctl stream ended mid-integer")
)

// Layout describes the router's C ABI: byte order and the widths of
// `unsigned int` and `unsigned long` (time_t decodes as unsigned long).
// It is built once from configuration and never changes afterwards.
type Layout struct {
	Order     binary.ByteOrder
	UintSize  int
	UlongSize int
}

// DefaultLayout is the x86_64 router ABI.
func DefaultLayout() Layout {
	return Layout{
		Order:     binary.LittleEndian,
		UintSize:  4,
		UlongSize: 8,
	}
}

// ParseLayout builds a Layout from config values. order is "little" or "big";
// ulongSize is 4 or 8.
func ParseLayout(order string, ulongSize int) (Layout, error) {
	l := DefaultLayout()

	switch strings.ToLower(order) {
	case "", "little", "le":
		l.Order = binary.LittleEndian
	case "big", "be":
		l.Order = binary.BigEndian
	default:
		return Layout{}, errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown byte order %q", order),
			"Set abi.byte_order to 'little' or 'big'.")
	}

	switch ulongSize {
	case 0, 8:
		l.UlongSize = 8
	case 4:
		l.UlongSize = 4
	default:
		return Layout{}, errors.New(errors.ErrConfig,
			fmt.Sprintf("Unsupported unsigned long size %d", ulongSize),
			"Set abi.ulong_size to 4 (32-bit router) or 8 (64-bit router).")
	}

	return l, nil
}

// Decoder reads fixed-width unsigned integers from a byte stream.
type Decoder struct {
	r      io.Reader
	layout Layout
	buf    [8]byte
}

// NewDecoder returns a decoder reading from r with the given layout.
func NewDecoder(r io.Reader, layout Layout) *Decoder {
	return &Decoder{r: r, layout: layout}
}

// Uint32 reads a 4-byte unsigned integer.
func (d *Decoder) Uint32() (uint32, error) {
	b, err := d.read(4)
	if err != nil {
		return 0, err
	}
	return d.layout.Order.Uint32(b), nil
}

// Uint64 reads an 8-byte unsigned integer.
func (d *Decoder) Uint64() (uint64, error) {
	b, err := d.read(8)
	if err != nil {
		return 0, err
	}
	return d.layout.Order.Uint64(b), nil
}

// Uint reads a C `unsigned int`.
func (d *Decoder) Uint() (uint64, error) {
	return d.width(d.layout.UintSize)
}

// Ulong reads a C `unsigned long`.
func (d *Decoder) Ulong() (uint64, error) {
	return d.width(d.layout.UlongSize)
}

func (d *Decoder) width(size int) (uint64, error) {
	if size == 4 {
		v, err := d.Uint32()
		return uint64(v), err
	}
	return d.Uint64()
}

// read fills exactly n bytes. Zero bytes available is ErrEnd; a partial read
// is ErrCorruptStream wrapped in a DECODE error.
func (d *Decoder) read(n int) ([]byte, error) {
	b := d.buf[:n]
	got, err := io.ReadFull(d.r, b)
	switch {
	case err == nil:
		return b, nil
	case stderrors.Is(err, io.EOF) && got == 0:
		return nil, ErrEnd
	case stderrors.Is(err, io.ErrUnexpectedEOF):
		return nil, errors.Decode(
			fmt.Errorf("%w: wanted %d bytes, got %d", ErrCorruptStream, n, got),
			"sysctl -b")
	default:
		return nil, err
	}
}
