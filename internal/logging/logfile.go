package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultLogPrefix names the per-run log files.
	DefaultLogPrefix = "clusterops"
	// DefaultRetentionDays applies when LogConfig.RetentionDays is zero.
	DefaultRetentionDays = 7

	outputStderr = "-"
	outputNone   = "none"
)

// LogConfig describes where a command run writes its log.
type LogConfig struct {
	Format        string // "human" or "json"
	Level         string // DEBUG, INFO, WARN, ERROR
	Output        string // "" for a generated file in Dir, "-" for stderr, "none", or a path
	Dir           string // directory for generated and relative log files
	Prefix        string // file name prefix, DefaultLogPrefix when empty
	RetentionDays int    // negative disables cleanup
}

func (c *LogConfig) prefix() string {
	if c.Prefix == "" {
		return DefaultLogPrefix
	}
	return c.Prefix
}

// LogFile is the opened log destination of a run.
type LogFile struct {
	Path   string // empty unless writing to a file
	file   *os.File
	writer io.Writer
}

// NewLogFile opens the destination named by cfg.Output. Generated files are
// named after the current UTC time, and expired generated files in cfg.Dir are
// removed on the way.
func NewLogFile(cfg *LogConfig) (*LogFile, error) {
	switch strings.ToLower(cfg.Output) {
	case outputNone:
		return &LogFile{writer: io.Discard}, nil
	case outputStderr:
		return &LogFile{writer: os.Stderr}, nil
	}

	path := cfg.Output
	switch {
	case path == "":
		path = filepath.Join(cfg.Dir, LogFilename(cfg.prefix(), time.Now().UTC()))
	case !filepath.IsAbs(path):
		path = filepath.Join(cfg.Dir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %q: %w", path, err)
	}

	if cfg.Dir != "" && cfg.RetentionDays >= 0 {
		days := cfg.RetentionDays
		if days == 0 {
			days = DefaultRetentionDays
		}
		_, _ = PruneLogFiles(cfg.Dir, cfg.prefix(), days, time.Now())
	}
	return &LogFile{Path: path, file: f, writer: f}, nil
}

// Writer returns the log destination.
func (lf *LogFile) Writer() io.Writer {
	return lf.writer
}

// ToStderr reports whether the log goes to the terminal's error stream.
func (lf *LogFile) ToStderr() bool {
	return lf.writer == os.Stderr
}

// Close closes the underlying file, if any.
func (lf *LogFile) Close() error {
	if lf.file == nil {
		return nil
	}
	return lf.file.Close()
}

// LogFilename returns "<prefix>-YYYYMMDD-HHMMSS-mmm.log" for t.
func LogFilename(prefix string, t time.Time) string {
	return fmt.Sprintf("%s-%s-%03d.log", prefix, t.Format("20060102-150405"), t.Nanosecond()/int(time.Millisecond))
}

// PruneLogFiles removes "<prefix>-*.log" files in dir last modified more than
// days before now. It returns the number removed. A missing dir is not an error.
func PruneLogFiles(dir, prefix string, days int, now time.Time) (int, error) {
	if days <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read log directory: %w", err)
	}

	cutoff := now.AddDate(0, 0, -days)
	removed := 0
	var errs []error
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix+"-") || filepath.Ext(name) != ".log" {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
