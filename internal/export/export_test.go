package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Guliveer/vitalis/meminfo/internal/models"
)

func testReport(at time.Time) models.Report {
	return models.Report{
		Source:    "/proc/meminfo",
		Interval:  "10ms",
		Ticks:     2,
		CreatedAt: at,
		Series: []models.MetricSeries{{
			Name:     "MemUsed",
			Unit:     "B",
			Position: 54,
			Points: []models.Point{
				{Timestamp: at, Value: 1},
				{Timestamp: at.Add(10 * time.Millisecond), Value: 2},
			},
		}},
	}
}

func TestWriter_WriteAndRead(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	w, err := New(dir, 0, zap.NewNop())
	require.NoError(t, err)

	at := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	path, err := w.Write(testReport(at))
	require.NoError(t, err)
	assert.Equal(t, "meminfo-20261018T120000.000.json", filepath.Base(path))

	report, err := Read(path)
	require.NoError(t, err)
	require.Len(t, report.Series, 1)
	assert.Equal(t, "MemUsed", report.Series[0].Name)
	assert.Len(t, report.Series[0].Points, 2)
	assert.True(t, at.Equal(report.CreatedAt))
}

func TestWriter_DropsOldestReports(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, 2, zap.NewNop())
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		_, err := w.Write(testReport(base.Add(time.Duration(i) * time.Second)))
		require.NoError(t, err)
	}

	files, err := w.List()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "meminfo-20260101T000002.000.json", filepath.Base(files[0]))
	assert.Equal(t, "meminfo-20260101T000003.000.json", filepath.Base(files[1]))
}

func TestRead_Corrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0640))

	_, err := Read(path)
	assert.Error(t, err)
}
