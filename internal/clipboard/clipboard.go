// Package clipboard delivers text to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

// Writer replaces the clipboard contents with text.
type Writer interface {
	WriteText(text string) error
}

// ErrEmpty is returned when there is nothing to copy.
var ErrEmpty = errors.New("nothing to copy")

// System writes to the operating system clipboard. The underlying library is
// initialised on first use.
type System struct {
	once    sync.Once
	initErr error
}

// NewSystem returns a Writer backed by the system clipboard.
func NewSystem() *System {
	return &System{}
}

// WriteText replaces the system clipboard contents with text.
func (s *System) WriteText(text string) error {
	if text == "" {
		return ErrEmpty
	}
	s.once.Do(func() {
		s.initErr = clipboard.Init()
	})
	if s.initErr != nil {
		return fmt.Errorf("clipboard unavailable: %w", s.initErr)
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

// Memory is an in-process Writer that records the last text written.
type Memory struct {
	mu   sync.Mutex
	text string
}

// WriteText stores text.
func (m *Memory) WriteText(text string) error {
	if text == "" {
		return ErrEmpty
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}

// Text returns the last text written.
func (m *Memory) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}
