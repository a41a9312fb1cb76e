// Package export writes sampling reports as timestamped JSON files.
// The oldest reports are dropped once the configured count is exceeded.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/vitalis/meminfo/internal/models"
)

const reportExt = ".json"

// Writer stores reports in a directory, one file per report.
type Writer struct {
	dir        string
	maxReports int
	logger     *zap.Logger
	mu         sync.Mutex
}

// New creates a report writer for dir. The directory is created if it does
// not exist. maxReports <= 0 keeps every report.
func New(dir string, maxReports int, logger *zap.Logger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("creating report directory: %w", err)
	}
	return &Writer{
		dir:        dir,
		maxReports: maxReports,
		logger:     logger.Named("export"),
	}, nil
}

// Write saves report and returns the file path.
func (w *Writer) Write(report models.Report) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling report: %w", err)
	}

	created := report.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	path := filepath.Join(w.dir, "meminfo-"+created.UTC().Format("20060102T150405.000")+reportExt)
	if err := os.WriteFile(path, data, 0640); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}

	w.enforceLimit()
	return path, nil
}

// List returns the stored report files, oldest first.
func (w *Writer) List() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == reportExt {
			files = append(files, filepath.Join(w.dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Read loads a report written by Write.
func Read(path string) (models.Report, error) {
	var report models.Report
	data, err := os.ReadFile(path)
	if err != nil {
		return report, err
	}
	if err := json.Unmarshal(data, &report); err != nil {
		return report, fmt.Errorf("parsing report %s: %w", path, err)
	}
	return report, nil
}

// enforceLimit removes the oldest reports beyond maxReports.
// Must be called with w.mu held.
func (w *Writer) enforceLimit() {
	if w.maxReports <= 0 {
		return
	}
	files, err := w.List()
	if err != nil {
		w.logger.Warn("Failed to list reports", zap.Error(err))
		return
	}
	for len(files) > w.maxReports {
		if err := os.Remove(files[0]); err != nil {
			w.logger.Warn("Failed to remove old report",
				zap.String("file", files[0]),
				zap.Error(err))
		} else {
			w.logger.Debug("Removed old report", zap.String("file", files[0]))
		}
		files = files[1:]
	}
}
