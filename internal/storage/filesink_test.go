package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fayvince/resmeter/internal/session"
)

var start = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestFileSink_CreatesFileLazily(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sessions")
	sink := NewFileSink(dir, start, zaptest.NewLogger(t))

	assert.Empty(t, sink.Path())
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, sink.Write([]byte("{}")))
	assert.Equal(t, filepath.Join(dir, "2024_05_01_12_00_00_GPS.json"), sink.Path())
}

func TestFileSink_WriteReplacesContent(t *testing.T) {
	sink := NewFileSink(t.TempDir(), start, zaptest.NewLogger(t))

	require.NoError(t, sink.Write([]byte(`{"first": true, "padding": "xxxxxxxx"}`)))
	require.NoError(t, sink.Write([]byte(`{"second": true}`)))

	data, err := os.ReadFile(sink.Path())
	require.NoError(t, err)
	assert.Equal(t, `{"second": true}`, string(data))

	entries, err := os.ReadDir(filepath.Dir(sink.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestFileSink_SameSecondSessionsDoNotCollide(t *testing.T) {
	dir := t.TempDir()
	factory := NewSinkFactory(dir, zaptest.NewLogger(t))

	var paths []string
	for i := 0; i < 3; i++ {
		sink := factory(start)
		require.NoError(t, sink.Write([]byte("{}")))
		paths = append(paths, filepath.Base(sink.Path()))
	}

	assert.Equal(t, []string{
		"2024_05_01_12_00_00_GPS.json",
		"2024_05_01_12_00_00_2_GPS.json",
		"2024_05_01_12_00_00_3_GPS.json",
	}, paths)
}

func TestFileSink_WithLog(t *testing.T) {
	dir := t.TempDir()
	logger := zaptest.NewLogger(t)
	sink := NewFileSink(dir, start, logger)
	l := session.OpenLog(start, sink, logger)

	require.NoError(t, l.Flush(l.AppendParameterChange(session.ParameterChange{
		Timestamp: session.NewTimestamp(start), N: 10, B: 5,
	})))
	require.NoError(t, l.Flush(l.AppendMeasurement(session.Measurement{
		Timestamp: session.NewTimestamp(start.Add(5 * time.Second)),
		Value:     550, Latitude: 47.4979, Longitude: 19.0402,
	})))

	doc, err := Load(l.Path())
	require.NoError(t, err)
	require.Len(t, doc.Measurements, 1)
	require.Len(t, doc.ParameterChanges, 1)
	assert.Equal(t, 550.0, doc.Measurements[0].Value)
}
