package stream

import (
	"errors"
	"strconv"
	"strings"
)

// DefaultChunkSize caps the response size when a range request gives no
// end offset. 1 MiB keeps open-ended requests from pulling whole files
// into memory.
const DefaultChunkSize int64 = 1 << 20

// ErrUnsatisfiable marks a range request whose bounds are invalid for the
// file being served. It maps to 416 Requested Range Not Satisfiable and is
// never silently clamped.
var ErrUnsatisfiable = errors.New("requested range not satisfiable")

const bytesPrefix = "bytes="

// ByteRange is a validated, inclusive [Start, End] byte interval against a
// known file size.
type ByteRange struct {
	Start int64
	End   int64
}

// Length returns the number of bytes the range spans.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ParseRange resolves an HTTP Range header against a file size.
//
// It accepts "bytes=<start>-<end>" and the open-ended "bytes=<start>-",
// where the open end is capped at chunkSize bytes. A missing header, or
// one without the "bytes=" prefix, means whole-file mode and yields
// (nil, nil). Bounds outside [0, fileSize) yield ErrUnsatisfiable.
func ParseRange(header string, fileSize, chunkSize int64) (*ByteRange, error) {
	if header == "" || !strings.HasPrefix(header, bytesPrefix) {
		return nil, nil
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	spec := strings.TrimPrefix(header, bytesPrefix)
	parts := strings.SplitN(spec, "-", 2)

	start, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, ErrUnsatisfiable
	}

	var end int64
	if len(parts) == 2 && parts[1] != "" {
		end, err = strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, ErrUnsatisfiable
		}
	} else {
		end = start + chunkSize - 1
		if max := fileSize - 1; end > max {
			end = max
		}
	}

	if start < 0 || start >= fileSize || end >= fileSize || end < start {
		return nil, ErrUnsatisfiable
	}

	return &ByteRange{Start: start, End: end}, nil
}
