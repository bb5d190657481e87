package logging

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// levelWriter writes one level's entries into <Director>/<date>/<level>.log,
// rotating through lumberjack. A new file set is opened when the date changes.
type levelWriter struct {
	config Config
	level  string

	mu      sync.Mutex
	date    string
	current *lumberjack.Logger
}

func newLevelWriter(config Config, level string) *levelWriter {
	return &levelWriter{config: config, level: level}
}

// Write implements io.Writer.
func (w *levelWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writerFor(time.Now().Format("2006-01-02")).Write(p)
}

// writerFor must be called with mu held.
func (w *levelWriter) writerFor(date string) *lumberjack.Logger {
	if w.current != nil && w.date == date {
		return w.current
	}
	if w.current != nil {
		_ = w.current.Close()
	}

	dir := filepath.Join(w.config.Director, date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		dir = w.config.Director
		_ = os.MkdirAll(dir, 0o755)
	}

	w.date = date
	w.current = &lumberjack.Logger{
		Filename:   filepath.Join(dir, w.level+".log"),
		MaxSize:    w.config.MaxSize,
		MaxBackups: w.config.MaxBackups,
		MaxAge:     w.config.MaxAge,
		Compress:   w.config.Compress,
		LocalTime:  true,
	}
	return w.current
}

// Close closes the open file, if any.
func (w *levelWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == nil {
		return nil
	}
	err := w.current.Close()
	w.current = nil
	return err
}

// writerSet closes the writers of one logger.
type writerSet []*levelWriter

func (s writerSet) Close() error {
	var errs []error
	for _, w := range s {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	writersMu sync.Mutex
	writers   []*levelWriter
)

func registerWriter(w *levelWriter) {
	writersMu.Lock()
	defer writersMu.Unlock()
	writers = append(writers, w)
}

// CloseAllWriters closes every file writer opened by NewLogger.
func CloseAllWriters() error {
	writersMu.Lock()
	defer writersMu.Unlock()

	var lastErr error
	for _, w := range writers {
		if err := w.Close(); err != nil {
			lastErr = err
		}
	}
	writers = nil
	return lastErr
}
