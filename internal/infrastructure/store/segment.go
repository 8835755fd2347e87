package store

import (
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// HeaderSize is the width of the ASCII-decimal length header.
	HeaderSize = 10
	// DefaultSegmentSize is the segment capacity used when none is configured.
	DefaultSegmentSize = 10 << 20
	// maxPayload is the largest length a 10 digit header can announce.
	maxPayload = 9_999_999_999
)

// SegmentKey derives the System V IPC key for salt. IPC_PRIVATE (0) is
// never returned so that distinct processes find the same segment.
func SegmentKey(salt string) int {
	key := int32(crc32.ChecksumIEEE([]byte(salt)))
	if key == 0 {
		key = 1
	}
	return int(key)
}

func segmentLockPath(key int) string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("webutil-shm-%08x.lock", uint32(key)))
}

// segment implements the length-prefixed layout over attached memory:
// mem[0:10] holds the payload length, mem[10:10+n] the payload.
type segment []byte

// capacity is the largest payload the segment can hold.
func (s segment) capacity() int {
	n := len(s) - HeaderSize
	if n < 0 {
		return 0
	}
	if n > maxPayload {
		return maxPayload
	}
	return n
}

func (s segment) read() ([]byte, error) {
	if len(s) < HeaderSize {
		return nil, fmt.Errorf("%w: segment smaller than header", ErrCorrupt)
	}
	// A fresh segment is zero-filled.
	h := strings.Trim(string(s[:HeaderSize]), " \x00")
	if h == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(h)
	if err != nil {
		return nil, fmt.Errorf("%w: header %q", ErrCorrupt, h)
	}
	if n <= 0 {
		return nil, nil
	}
	if n > s.capacity() {
		return nil, fmt.Errorf("%w: length %d exceeds capacity %d", ErrCorrupt, n, s.capacity())
	}
	out := make([]byte, n)
	copy(out, s[HeaderSize:HeaderSize+n])
	return out, nil
}

// write stores blob and then its header so a reader never sees a length
// announcing bytes that are not there yet.
func (s segment) write(blob []byte) error {
	if len(blob) > s.capacity() {
		return fmt.Errorf("%w: %d bytes, capacity %d", ErrPayloadTooLarge, len(blob), s.capacity())
	}
	copy(s[HeaderSize:], blob)
	copy(s[:HeaderSize], formatHeader(len(blob)))
	return nil
}

// formatHeader renders n left-aligned and space-padded to HeaderSize bytes.
func formatHeader(n int) []byte {
	return []byte(fmt.Sprintf("%-*d", HeaderSize, n))
}
