package library

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// Defaults substituted for missing or unreadable tag fields.
const (
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
	UnknownGenre  = "Unknown"

	// DefaultDuration is assumed when the audio header cannot be parsed.
	DefaultDuration = 180

	// DefaultCoverPath references the placeholder cover art.
	DefaultCoverPath = "/images/default-cover.jpg"
)

// supportedExtensions is the set of audio file extensions the scanner imports.
var supportedExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".aac":  true,
	".m4a":  true,
	".aiff": true,
	".aif":  true,
	".alac": true,
	".ogg":  true,
	".wma":  true,
}

// SupportedFormats lists the supported audio formats without the leading dot.
func SupportedFormats() []string {
	formats := make([]string, 0, len(supportedExtensions))
	for ext := range supportedExtensions {
		formats = append(formats, strings.TrimPrefix(ext, "."))
	}
	return formats
}

// IsSupportedAudioFile reports whether the file's extension is a supported
// audio format. The check is case-insensitive.
func IsSupportedAudioFile(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Metadata is the per-file result of tag extraction.
type Metadata struct {
	Title    string
	Artist   string
	Album    string
	Genre    string
	Duration int // Seconds
}

// Extract reads the embedded tags of an audio file. Missing or blank
// fields get per-field defaults; an unparseable tag container falls back
// to a filename-derived identity. The only error returned is an unreadable
// file, everything else degrades to defaults.
func Extract(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	meta := &Metadata{
		Title:    titleFromFilename(path),
		Artist:   UnknownArtist,
		Album:    UnknownAlbum,
		Genre:    UnknownGenre,
		Duration: DefaultDuration,
	}

	// An unparseable tag container keeps the filename-derived identity;
	// formats without tag support (WAV, AIFF) land here too.
	if tags, err := tag.ReadFrom(f); err == nil {
		if v := strings.TrimSpace(tags.Title()); v != "" {
			meta.Title = v
		}
		if v := strings.TrimSpace(tags.Artist()); v != "" {
			meta.Artist = v
		}
		if v := strings.TrimSpace(tags.Album()); v != "" {
			meta.Album = v
		}
		if v := strings.TrimSpace(tags.Genre()); v != "" {
			meta.Genre = v
		}
	}

	// The audio header is independent of the tag container, so the
	// duration probe runs either way.
	if d := probeDuration(f, strings.ToLower(filepath.Ext(path))); d > 0 {
		meta.Duration = d
	}

	return meta, nil
}

// titleFromFilename derives a track title from the file name, minus its
// extension.
func titleFromFilename(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// probeDuration reads the audio header for the track length in seconds.
// FLAC and WAV carry it in a fixed header layout; other formats return 0
// and the caller keeps the default.
func probeDuration(rs io.ReadSeeker, ext string) int {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return 0
	}
	switch ext {
	case ".flac":
		return flacDuration(rs)
	case ".wav":
		return wavDuration(rs)
	default:
		return 0
	}
}

// flacDuration walks the FLAC metadata blocks to the STREAMINFO block and
// computes total samples / sample rate.
func flacDuration(r io.Reader) int {
	marker := make([]byte, 4)
	if _, err := io.ReadFull(r, marker); err != nil || string(marker) != "fLaC" {
		return 0
	}

	header := make([]byte, 4)
	for {
		if _, err := io.ReadFull(r, header); err != nil {
			return 0
		}
		last := header[0]&0x80 != 0
		blockType := header[0] & 0x7F
		length := int(header[1])<<16 | int(header[2])<<8 | int(header[3])

		if blockType == 0 { // STREAMINFO
			if length < 34 {
				return 0
			}
			info := make([]byte, length)
			if _, err := io.ReadFull(r, info); err != nil {
				return 0
			}
			sampleRate := int(info[10])<<12 | int(info[11])<<4 | int(info[12])>>4
			totalSamples := uint64(info[13]&0x0F)<<32 |
				uint64(info[14])<<24 | uint64(info[15])<<16 | uint64(info[16])<<8 | uint64(info[17])
			if sampleRate == 0 || totalSamples == 0 {
				return 0
			}
			return int(totalSamples / uint64(sampleRate))
		}

		if _, err := io.CopyN(io.Discard, r, int64(length)); err != nil {
			return 0
		}
		if last {
			return 0
		}
	}
}

// wavDuration iterates RIFF chunks and divides the data chunk size by the
// fmt chunk's byte rate.
func wavDuration(r io.Reader) int {
	riff := make([]byte, 12)
	if _, err := io.ReadFull(r, riff); err != nil {
		return 0
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return 0
	}

	var byteRate, dataSize uint32
	chunk := make([]byte, 8)
	for byteRate == 0 || dataSize == 0 {
		if _, err := io.ReadFull(r, chunk); err != nil {
			return 0
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		if id == "fmt " {
			if size < 16 {
				return 0
			}
			fmtChunk := make([]byte, size)
			if _, err := io.ReadFull(r, fmtChunk); err != nil {
				return 0
			}
			byteRate = binary.LittleEndian.Uint32(fmtChunk[8:12])
			continue
		}

		if id == "data" {
			// The size field alone is enough, no need to read the samples.
			dataSize = size
		}
		if _, err := io.CopyN(io.Discard, r, int64(size)); err != nil {
			break
		}
	}

	if byteRate > 0 && dataSize > 0 {
		return int(dataSize / byteRate)
	}
	return 0
}
