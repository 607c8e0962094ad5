package sysctl

import (
	"bytes"
	"encoding/binary"
	stderrors "errors"
	"io"
	"testing"

	"github.com/rileyhilliard/pfdash/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func le32(vals ...uint32) []byte {
	var buf bytes.Buffer
	for _, v := range vals {
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	return buf.Bytes()
}

func TestDecoder_ThreeLittleEndianUint32(t *testing.T) {
	data := le32(7, 0xDEADBEEF, 1<<31)
	require.Len(t, data, 12)

	d := NewDecoder(bytes.NewReader(data), DefaultLayout())

	for _, want := range []uint32{7, 0xDEADBEEF, 1 << 31} {
		got, err := d.Uint32()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := d.Uint32()
	assert.ErrorIs(t, err, ErrEnd)
}

func TestDecoder_TruncatedMidInteger(t *testing.T) {
	data := le32(1, 2, 3)[:10]
	d := NewDecoder(bytes.NewReader(data), DefaultLayout())

	_, err := d.Uint32()
	require.NoError(t, err)
	_, err = d.Uint32()
	require.NoError(t, err)

	_, err = d.Uint32()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorruptStream)
	assert.False(t, stderrors.Is(err, ErrEnd))
	assert.True(t, errors.IsCode(err, errors.ErrDecode))
}

func TestDecoder_EightBytesHoldTwoUint32(t *testing.T) {
	d := NewDecoder(bytes.NewReader(le32(1, 2)), DefaultLayout())

	a, err := d.Uint32()
	require.NoError(t, err)
	b, err := d.Uint32()
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2}, []uint32{a, b})

	_, err = d.Uint32()
	assert.ErrorIs(t, err, ErrEnd)
}

func TestDecoder_EmptyStreamIsCleanEnd(t *testing.T) {
	d := NewDecoder(bytes.NewReader(nil), DefaultLayout())

	_, err := d.Uint32()
	assert.ErrorIs(t, err, ErrEnd)

	_, err = d.Uint64()
	assert.ErrorIs(t, err, ErrEnd)
}

func TestDecoder_Uint64PartialIsCorrupt(t *testing.T) {
	d := NewDecoder(bytes.NewReader([]byte{1, 2, 3, 4}), DefaultLayout())

	_, err := d.Uint64()
	assert.ErrorIs(t, err, ErrCorruptStream)
}

func TestDecoder_BigEndian(t *testing.T) {
	layout, err := ParseLayout("big", 8)
	require.NoError(t, err)

	data := []byte{0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 1, 0}
	d := NewDecoder(bytes.NewReader(data), layout)

	u, err := d.Uint()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), u)

	ul, err := d.Ulong()
	require.NoError(t, err)
	assert.Equal(t, uint64(256), ul)
}

func TestDecoder_Ulong32(t *testing.T) {
	layout, err := ParseLayout("little", 4)
	require.NoError(t, err)

	d := NewDecoder(bytes.NewReader(le32(42, 43)), layout)

	a, err := d.Ulong()
	require.NoError(t, err)
	b, err := d.Ulong()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), a)
	assert.Equal(t, uint64(43), b)
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestDecoder_PropagatesReadErrors(t *testing.T) {
	boom := stderrors.New("channel reset")
	d := NewDecoder(failingReader{boom}, DefaultLayout())

	_, err := d.Uint32()
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrEnd)
	assert.NotErrorIs(t, err, io.EOF)
}

func TestParseLayout(t *testing.T) {
	tests := []struct {
		name      string
		order     string
		ulong     int
		wantOrder binary.ByteOrder
		wantUlong int
		wantErr   bool
	}{
		{name: "defaults", order: "", ulong: 0, wantOrder: binary.LittleEndian, wantUlong: 8},
		{name: "big 32-bit", order: "BIG", ulong: 4, wantOrder: binary.BigEndian, wantUlong: 4},
		{name: "short form", order: "le", ulong: 8, wantOrder: binary.LittleEndian, wantUlong: 8},
		{name: "bad order", order: "middle", ulong: 8, wantErr: true},
		{name: "bad width", order: "little", ulong: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := ParseLayout(tt.order, tt.ulong)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, errors.ErrConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOrder, l.Order)
			assert.Equal(t, tt.wantUlong, l.UlongSize)
			assert.Equal(t, 4, l.UintSize)
		})
	}
}
