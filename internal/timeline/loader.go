package timeline

import (
	"bufio"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LoadResult carries the raw rows plus loader counters.
type LoadResult struct {
	Rows         []Row
	FilesRead    int
	FilesSkipped int
}

// columnIndexes maps the aliased header columns of one source file.
type columnIndexes struct {
	timestamp int
	severity  int
	message   int
	source    int
}

var (
	timestampAliases = []string{"timestamp", "timecreated", "time", "@timestamp", "ts", "datetime"}
	severityAliases  = []string{"severity", "leveldisplayname", "level", "loglevel"}
	messageAliases   = []string{"message", "msg", "text"}
	sourceAliases    = []string{"source", "providername", "provider", "service", "logger"}
)

// LoadDirectory walks a directory tree of tab-delimited event files and
// returns their raw rows. Files beneath the reserved report subdirectory are
// skipped so the engine never ingests its own output. An unreadable or
// header-less file is logged and contributes zero events; it never aborts
// the load.
func LoadDirectory(dir, reservedSubdir string, logger *slog.Logger) (LoadResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var result LoadResult
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("skipping inaccessible path", slog.String("path", path), slog.Any("error", err))
			return nil
		}
		if d.IsDir() {
			if reservedSubdir != "" && d.Name() == reservedSubdir {
				return filepath.SkipDir
			}
			return nil
		}

		rows, err := loadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable source", slog.String("path", path), slog.Any("error", err))
			result.FilesSkipped++
			return nil
		}
		result.Rows = append(result.Rows, rows...)
		result.FilesRead++
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("walk %s: %w", dir, err)
	}
	return result, nil
}

func loadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	buf := make([]byte, 0, 1024*1024)
	s.Buffer(buf, 8*1024*1024)

	if !s.Scan() {
		if err := s.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	cols, err := mapHeader(s.Text())
	if err != nil {
		return nil, err
	}

	defaultSource := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	rows := make([]Row, 0, 256)

	for s.Scan() {
		fields := strings.Split(s.Text(), "\t")
		row := Row{OriginFile: path, Source: defaultSource}
		row.Timestamp = fieldAt(fields, cols.timestamp)
		row.Severity = fieldAt(fields, cols.severity)
		row.Message = fieldAt(fields, cols.message)
		if src := fieldAt(fields, cols.source); src != "" {
			row.Source = src
		}
		rows = append(rows, row)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

func mapHeader(header string) (columnIndexes, error) {
	cols := columnIndexes{timestamp: -1, severity: -1, message: -1, source: -1}
	for i, name := range strings.Split(header, "\t") {
		name = strings.ToLower(strings.TrimSpace(name))
		switch {
		case cols.timestamp < 0 && matchesAlias(name, timestampAliases):
			cols.timestamp = i
		case cols.severity < 0 && matchesAlias(name, severityAliases):
			cols.severity = i
		case cols.message < 0 && matchesAlias(name, messageAliases):
			cols.message = i
		case cols.source < 0 && matchesAlias(name, sourceAliases):
			cols.source = i
		}
	}
	if cols.timestamp < 0 {
		return cols, fmt.Errorf("no timestamp column in header %q", header)
	}
	return cols, nil
}

func matchesAlias(name string, aliases []string) bool {
	for _, alias := range aliases {
		if name == alias {
			return true
		}
	}
	return false
}

func fieldAt(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[idx])
}
