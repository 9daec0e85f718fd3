package stream

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"melodex/logger"
)

// Responder serves audio files over HTTP with byte-range support. Each
// request opens its own file handle and releases it on completion; nothing
// is shared between concurrent requests.
type Responder struct {
	// ChunkSize bounds open-ended range responses. Zero means
	// DefaultChunkSize.
	ChunkSize int64
}

// ServeFile streams the file at path, honoring an optional Range header.
//
// Outcomes: 404 when the file is missing or unreadable, 416 with a
// "Content-Range: bytes */<size>" header when the range is invalid, 206
// with the requested span, 200 with the whole file, and 500 for I/O
// failures after validation. Headers are always written before any
// payload byte.
func (rp *Responder) ServeFile(w http.ResponseWriter, r *http.Request, path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		logger.Warn("Audio file not found or not readable", logger.String("path", path))
		w.WriteHeader(http.StatusNotFound)
		return
	}
	fileSize := info.Size()

	byteRange, err := ParseRange(r.Header.Get("Range"), fileSize, rp.ChunkSize)
	if errors.Is(err, ErrUnsatisfiable) {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", fileSize))
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) || os.IsPermission(err) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	defer f.Close()

	contentType := ContentType(path)

	if byteRange == nil {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", strconv.FormatInt(fileSize, 10))
		w.Header().Set("Accept-Ranges", "bytes")
		w.WriteHeader(http.StatusOK)

		if _, err := io.Copy(w, f); err != nil {
			// Headers are out the door; typically the client went away.
			logger.Debug("Streaming aborted", logger.String("path", path), logger.ErrorField(err))
		}
		return
	}

	if _, err := f.Seek(byteRange.Start, io.SeekStart); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	// The span is read up front (bounded by the chunk cap for open-ended
	// requests) so a read failure can still become a clean 500 instead of
	// a truncated 206.
	buf := make([]byte, byteRange.Length())
	if _, err := io.ReadFull(f, buf); err != nil {
		logger.Error("Failed to read requested range",
			logger.String("path", path),
			logger.Int64("start", byteRange.Start),
			logger.Int64("end", byteRange.End),
			logger.ErrorField(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(byteRange.Length(), 10))
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", byteRange.Start, byteRange.End, fileSize))
	w.Header().Set("Accept-Ranges", "bytes")
	w.WriteHeader(http.StatusPartialContent)

	if _, err := w.Write(buf); err != nil {
		logger.Debug("Streaming aborted", logger.String("path", path), logger.ErrorField(err))
	}
}

// ContentType resolves the MIME type for an audio file, preferring the
// system type registry and falling back to a fixed table.
func ContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return fallbackContentType(ext)
}

func fallbackContentType(ext string) string {
	switch ext {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	case ".m4a", ".aac":
		return "audio/aac"
	case ".ogg":
		return "audio/ogg"
	case ".wma":
		return "audio/x-ms-wma"
	default:
		return "application/octet-stream"
	}
}
