package store

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSegment_FreshIsEmpty(t *testing.T) {
	seg := segment(make([]byte, 64))
	b, err := seg.read()
	require.NoError(t, err)
	require.Nil(t, b)
}

func TestSegment_WriteThenRead(t *testing.T) {
	seg := segment(make([]byte, 64))
	require.NoError(t, seg.write([]byte("hello")))

	require.Equal(t, "5         ", string(seg[:HeaderSize]))
	b, err := seg.read()
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), b)

	// A shorter payload must not leak the tail of the previous one.
	require.NoError(t, seg.write([]byte("hi")))
	b, err = seg.read()
	require.NoError(t, err)
	require.Equal(t, []byte("hi"), b)
}

func TestSegment_ExactCapacityFits(t *testing.T) {
	seg := segment(make([]byte, 1024))
	blob := bytes.Repeat([]byte("x"), 1024-HeaderSize)
	require.NoError(t, seg.write(blob))
	b, err := seg.read()
	require.NoError(t, err)
	require.Equal(t, blob, b)
}

func TestSegment_OversizeRejectedKeepsPriorState(t *testing.T) {
	seg := segment(make([]byte, 1024))
	require.NoError(t, seg.write([]byte("prior")))

	err := seg.write(bytes.Repeat([]byte("x"), 1024))
	require.ErrorIs(t, err, ErrPayloadTooLarge)

	b, err := seg.read()
	require.NoError(t, err)
	require.Equal(t, []byte("prior"), b)
}

func TestSegment_CorruptHeaders(t *testing.T) {
	cases := map[string]string{
		"not a number":    "12ab      ",
		"beyond capacity": "999       ",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			seg := segment(make([]byte, 64))
			copy(seg, header)
			_, err := seg.read()
			require.ErrorIs(t, err, ErrCorrupt)
		})
	}

	_, err := segment(make([]byte, 4)).read()
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestSegment_NonPositiveLengthIsEmpty(t *testing.T) {
	for _, header := range []string{"0         ", "-3        "} {
		seg := segment(make([]byte, 64))
		copy(seg, header)
		b, err := seg.read()
		require.NoError(t, err)
		require.Nil(t, b)
	}
}

func TestSegment_AcceptsZeroPaddedHeader(t *testing.T) {
	seg := segment(make([]byte, 64))
	copy(seg, "0000000003abc")
	b, err := seg.read()
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), b)
}

func TestFormatHeader_FixedWidth(t *testing.T) {
	for _, n := range []int{0, 7, 10485750, maxPayload} {
		h := formatHeader(n)
		require.Len(t, h, HeaderSize)
		require.Equal(t, strings.TrimSpace(string(h)), strings.TrimLeft(string(h), " "))
	}
}

func TestSegmentKey_StableAndNonZero(t *testing.T) {
	require.Equal(t, SegmentKey("123456789987654321"), SegmentKey("123456789987654321"))
	require.NotEqual(t, SegmentKey("a"), SegmentKey("b"))
	require.NotZero(t, SegmentKey(""))
}
