package library

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"melodex/config"
	"melodex/logger"
	"melodex/model"
	"melodex/repository"
)

// Scanner walks the music library directory and imports new tracks into
// the catalog. One scan runs at a time; a second invocation blocks until
// the first finishes.
type Scanner struct {
	cfg     *config.Config
	artists repository.ArtistRepository
	tracks  repository.TrackRepository

	mu        sync.Mutex // Serializes scan invocations
	nameLocks keyedMutex

	progressFn func(model.ScanProgress)
}

// NewScanner creates a library scanner over the given catalog repositories.
func NewScanner(cfg *config.Config, artists repository.ArtistRepository, tracks repository.TrackRepository) *Scanner {
	return &Scanner{
		cfg:     cfg,
		artists: artists,
		tracks:  tracks,
	}
}

// OnProgress registers a callback invoked once per processed file and once
// when the scan completes. Must be set before Scan is called.
func (s *Scanner) OnProgress(fn func(model.ScanProgress)) {
	s.progressFn = fn
}

func (s *Scanner) emit(p model.ScanProgress) {
	if s.progressFn != nil {
		s.progressFn(p)
	}
}

// Scan walks the library root, extracts metadata from every supported
// audio file, deduplicates against the catalog and imports what is new.
// Per-file failures are recorded in the report and do not abort the walk;
// only a missing library root is fatal and yields an "error" report with
// zero counts.
func (s *Scanner) Scan(ctx context.Context) *model.ScanReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &model.ScanReport{
		ScanID:    uuid.New().String(),
		Status:    model.ScanStatusSuccess,
		Errors:    []string{},
		StartedAt: time.Now(),
	}

	root := s.cfg.LibraryPath
	logger.Info("Starting library scan",
		logger.String("scanId", report.ScanID),
		logger.String("path", root))

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		report.Status = model.ScanStatusError
		report.Message = fmt.Sprintf("library path does not exist: %s", root)
		report.FinishedAt = time.Now()
		logger.Warn("Library path does not exist", logger.String("path", root))
		return report
	}

	files := s.collectAudioFiles(root, report)
	total := len(files)

	var (
		reportMu  sync.Mutex
		processed int
	)

	g := &errgroup.Group{}
	workers := s.cfg.ScanWorkers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		path := path
		g.Go(func() error {
			imported, err := s.processFile(path)

			reportMu.Lock()
			report.ScannedFiles++
			processed++
			done := processed
			var status string
			switch {
			case err != nil:
				report.SkippedFiles++
				report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", filepath.Base(path), err))
				status = "error"
			case imported:
				report.ImportedSongs++
				status = "imported"
			default:
				report.SkippedFiles++
				status = "duplicate"
			}
			reportMu.Unlock()

			if err != nil {
				logger.Error("Failed to import file",
					logger.String("file", path),
					logger.ErrorField(err))
			}

			s.emit(model.ScanProgress{
				ScanID:      report.ScanID,
				Total:       total,
				Processed:   done,
				CurrentFile: filepath.Base(path),
				Status:      status,
			})
			return nil
		})
	}
	g.Wait()

	report.FinishedAt = time.Now()
	s.emit(model.ScanProgress{
		ScanID:    report.ScanID,
		Total:     total,
		Processed: report.ScannedFiles,
		Status:    "done",
	})

	logger.Info("Library scan completed",
		logger.String("scanId", report.ScanID),
		logger.Int("scanned", report.ScannedFiles),
		logger.Int("imported", report.ImportedSongs),
		logger.Int("skipped", report.SkippedFiles),
		logger.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)))

	return report
}

// collectAudioFiles enumerates the regular files under root with a
// supported audio extension. Unreadable subtrees are recorded in the
// report and skipped.
func (s *Scanner) collectAudioFiles(root string, report *model.ScanReport) []string {
	var files []string
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", filepath.Base(path), err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && IsSupportedAudioFile(path) {
			files = append(files, path)
		}
		return nil
	})
	return files
}

// processFile runs the per-file import pipeline: extract, resolve artist,
// dedup, insert. The returned bool reports whether a new track was
// imported; false with a nil error means a duplicate was skipped.
//
// The per-artist lock is held across artist resolution, the duplicate
// check and the insert, so two workers holding files with the same artist
// cannot both conclude "no duplicate" and insert the same track twice.
func (s *Scanner) processFile(path string) (bool, error) {
	meta, err := Extract(path)
	if err != nil {
		return false, err
	}

	artistKey := NormalizeKey(meta.Artist)
	unlock := s.nameLocks.lock(artistKey)
	defer unlock()

	artist, err := s.artists.CreateIfAbsent(&model.Artist{
		Name:    meta.Artist,
		NameKey: artistKey,
		Bio:     "Auto-imported artist",
		Country: "Unknown",
	})
	if err != nil {
		return false, err
	}

	titleKey := NormalizeKey(meta.Title)
	existing, err := s.tracks.GetTracksByArtistID(artist.ID)
	if err != nil {
		return false, err
	}
	for _, t := range existing {
		if NormalizeKey(t.Title) == titleKey {
			logger.Debug("Track already exists",
				logger.String("title", meta.Title),
				logger.String("artist", meta.Artist))
			return false, nil
		}
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	track := &model.Track{
		ArtistID:   artist.ID,
		Title:      meta.Title,
		Album:      meta.Album,
		Genre:      meta.Genre,
		Duration:   meta.Duration,
		FilePath:   absPath,
		CoverPath:  DefaultCoverPath,
		PlayCount:  0,
		ReleasedAt: time.Now(),
	}
	if _, err := s.tracks.CreateTrack(track); err != nil {
		return false, err
	}

	logger.Info("Imported track",
		logger.String("title", meta.Title),
		logger.String("artist", meta.Artist),
		logger.String("file", filepath.Base(path)))
	return true, nil
}

// keyedMutex hands out one mutex per key. Entries are never reclaimed;
// the key space is bounded by the number of distinct artists in a library.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
