// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-trustvault.
//
// go-trustvault is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package audit

import (
	"bytes"
	"fmt"
	"os"
	"sync"
)

// Sink is the durable medium a Trail appends to. Implementations must be
// thread-safe; ordering of appends is the Trail's responsibility.
type Sink interface {
	// Append durably writes one record line.
	Append(line []byte) error

	// ReadAll returns every record line in append order.
	ReadAll() ([][]byte, error)

	// Close releases any resources held by the sink.
	Close() error
}

// FileSink persists records as newline-delimited JSON in a single file
// opened in append mode. Each append is followed by an fsync so a record
// acknowledged to the caller survives a crash.
type FileSink struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	closed bool
}

// NewFileSink opens (or creates, mode 0600) the log file at path.
func NewFileSink(path string) (*FileSink, error) {
	if path == "" {
		return nil, fmt.Errorf("audit: log path cannot be empty")
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("audit: failed to open log file: %w", err)
	}
	return &FileSink{path: path, file: file}, nil
}

// Append writes one record line followed by a newline and syncs the file.
func (s *FileSink) Append(line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	record := make([]byte, 0, len(line)+1)
	record = append(record, line...)
	record = append(record, '\n')

	if _, err := s.file.Write(record); err != nil {
		return fmt.Errorf("audit: failed to write log record: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("audit: failed to sync log file: %w", err)
	}
	return nil
}

// ReadAll returns every non-empty line of the log file in append order.
// A missing file is a valid empty log.
func (s *FileSink) ReadAll() ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("audit: failed to read log file: %w", err)
	}
	return splitLines(data), nil
}

// Close closes the underlying file. Multiple calls are safe.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.Close()
}

// MemorySink keeps records in memory. It is intended for tests and for
// deployments that export the trail through other means.
type MemorySink struct {
	mu     sync.Mutex
	lines  [][]byte
	closed bool
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Append stores a copy of the record line.
func (s *MemorySink) Append(line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	lineCopy := make([]byte, len(line))
	copy(lineCopy, line)
	s.lines = append(s.lines, lineCopy)
	return nil
}

// ReadAll returns copies of every record line in append order.
func (s *MemorySink) ReadAll() ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	result := make([][]byte, len(s.lines))
	for i, line := range s.lines {
		lineCopy := make([]byte, len(line))
		copy(lineCopy, line)
		result[i] = lineCopy
	}
	return result, nil
}

// Tamper overwrites the record line at index i. It exists so tests can
// simulate retroactive modification of a persisted log.
func (s *MemorySink) Tamper(i int, line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i >= 0 && i < len(s.lines) {
		lineCopy := make([]byte, len(line))
		copy(lineCopy, line)
		s.lines[i] = lineCopy
	}
}

// Close marks the sink as closed. Multiple calls are safe.
func (s *MemorySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// splitLines splits newline-delimited data into individual records,
// ignoring empty lines.
func splitLines(data []byte) [][]byte {
	var lines [][]byte
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		if len(bytes.TrimSpace(line)) > 0 {
			lines = append(lines, line)
		}
	}
	return lines
}
