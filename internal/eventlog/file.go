// Package eventlog stores the PSP event log as an append-only text file.
package eventlog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rpggio/psptrack/internal/domain/event"
)

const lineTerminator = "\r\n"

// ErrUnreadable is returned when the log cannot be read back.
var ErrUnreadable = errors.New("event log unreadable")

// File appends event lines and syncs them to disk before returning.
type File struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// Open opens path for appending, creating it and its directory if needed.
func Open(path string) (*File, error) {
	if err := ensureDir(path); err != nil {
		return nil, fmt.Errorf("create event log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	return &File{path: path, file: file}, nil
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

// Append writes one line and fsyncs the file.
func (f *File) Append(ctx context.Context, line string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return os.ErrClosed
	}
	if _, err := f.file.WriteString(line + lineTerminator); err != nil {
		return fmt.Errorf("write event log: %w", err)
	}
	if err := f.file.Sync(); err != nil {
		return fmt.Errorf("sync event log: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

// ReadEntries parses every line of the log at path. A missing file has no
// entries.
func ReadEntries(path string) ([]event.Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: open: %w", ErrUnreadable, err)
	}
	defer file.Close()

	var entries []event.Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, err := event.ParseLine(line)
		if err != nil {
			return entries, fmt.Errorf("%w: %w", ErrUnreadable, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("%w: read: %w", ErrUnreadable, err)
	}
	return entries, nil
}

// Tail returns the last n entries, or all of them when n <= 0.
func Tail(path string, n int) ([]event.Entry, error) {
	entries, err := ReadEntries(path)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
