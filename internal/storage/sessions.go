package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/fayvince/resmeter/internal/session"
)

// Load reads and decodes a session file.
func Load(path string) (session.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return session.Document{}, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	doc, err := session.Decode(data)
	if err != nil {
		return session.Document{}, fmt.Errorf("%w: %s: %w", ErrReadFailed, path, err)
	}
	return doc, nil
}

// List returns the session files in dir, newest first. A missing directory
// yields an empty list.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), FileSuffix) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Slice(paths, func(i, j int) bool {
		return sessionKey(paths[i]) > sessionKey(paths[j])
	})
	return paths, nil
}

// sessionKey orders file names by timestamp and then collision counter, so
// "x_GPS.json" < "x_2_GPS.json" < "x_10_GPS.json".
func sessionKey(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), FileSuffix)
	if len(name) <= len(FileNameLayout) {
		return name + "_0000"
	}
	counter, err := strconv.Atoi(name[len(FileNameLayout)+1:])
	if err != nil {
		return name
	}
	return fmt.Sprintf("%s_%04d", name[:len(FileNameLayout)], counter)
}

var csvHeader = []string{"timestamp", "value", "latitude", "longitude"}

// WriteCSV writes the measurements of doc as CSV, one row per record.
func WriteCSV(w io.Writer, doc session.Document) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	for _, m := range doc.Measurements {
		row := []string{
			m.Timestamp.String(),
			strconv.FormatFloat(m.Value, 'f', -1, 64),
			strconv.FormatFloat(m.Latitude, 'f', -1, 64),
			strconv.FormatFloat(m.Longitude, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("%w: %w", ErrExportFailed, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return nil
}

// ExportCSV converts the session file at jsonPath into a CSV file next to
// it and returns the CSV path.
func ExportCSV(jsonPath string) (string, error) {
	doc, err := Load(jsonPath)
	if err != nil {
		return "", err
	}

	csvPath := strings.TrimSuffix(jsonPath, filepath.Ext(jsonPath)) + ".csv"
	f, err := os.Create(csvPath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	if err := WriteCSV(f, doc); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return csvPath, nil
}
