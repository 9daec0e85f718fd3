package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRangeWholeFileModes(t *testing.T) {
	// No header means whole-file mode, not an error.
	r, err := ParseRange("", 1000, DefaultChunkSize)
	require.NoError(t, err)
	assert.Nil(t, r)

	// A header without the bytes= prefix is ignored.
	r, err = ParseRange("items=0-9", 1000, DefaultChunkSize)
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestParseRangeExplicit(t *testing.T) {
	r, err := ParseRange("bytes=0-9", 1000, DefaultChunkSize)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, int64(0), r.Start)
	assert.Equal(t, int64(9), r.End)
	assert.Equal(t, int64(10), r.Length())

	r, err = ParseRange("bytes=999-999", 1000, DefaultChunkSize)
	require.NoError(t, err)
	assert.Equal(t, int64(999), r.Start)
	assert.Equal(t, int64(1), r.Length())
}

func TestParseRangeOpenEnded(t *testing.T) {
	const tenMiB = 10 << 20

	// Open end is capped at the chunk size.
	r, err := ParseRange("bytes=500-", tenMiB, DefaultChunkSize)
	require.NoError(t, err)
	assert.Equal(t, int64(500), r.Start)
	assert.Equal(t, DefaultChunkSize, r.Length())

	// Near the end of the file only the remainder is served.
	r, err = ParseRange("bytes=500-", 1000, DefaultChunkSize)
	require.NoError(t, err)
	assert.Equal(t, int64(500), r.Start)
	assert.Equal(t, int64(999), r.End)
	assert.Equal(t, int64(500), r.Length())

	// Zero chunk size falls back to the default cap.
	r, err = ParseRange("bytes=0-", tenMiB, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultChunkSize, r.Length())
}

func TestParseRangeUnsatisfiable(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"end beyond file size", "bytes=995-1005"},
		{"start beyond file size", "bytes=1000-"},
		{"negative start", "bytes=-1"},
		{"no numeric start", "bytes=-"},
		{"non numeric start", "bytes=abc-def"},
		{"non numeric end", "bytes=0-x"},
		{"end before start", "bytes=9-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRange(tt.header, 1000, DefaultChunkSize)
			assert.ErrorIs(t, err, ErrUnsatisfiable)
			assert.Nil(t, r)
		})
	}
}

func TestParseRangeNeverClamps(t *testing.T) {
	// An explicit out-of-bounds end is rejected, not clamped to file size.
	r, err := ParseRange("bytes=0-1000", 1000, DefaultChunkSize)
	assert.ErrorIs(t, err, ErrUnsatisfiable)
	assert.Nil(t, r)
}
