// Package storage persists bus events on disk for post-hoc diagnostics.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dohr-michael/reflex/internal/events"
)

// EventLog appends bus events to a JSONL file, rotating once the file grows
// past the size cap. One rotated generation is kept.
type EventLog struct {
	path    string
	maxSize int64

	mu          sync.Mutex
	f           *os.File
	size        int64
	unsubscribe func()
}

// NewEventLog opens the log file and subscribes to all bus events.
func NewEventLog(path string, maxSizeMB int, bus *events.Bus) (*EventLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("event log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat event log: %w", err)
	}

	l := &EventLog{
		path:    path,
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		f:       f,
		size:    st.Size(),
	}
	l.unsubscribe = bus.Subscribe(l.handleEvent)
	return l, nil
}

// Close unsubscribes from the bus and closes the file.
func (l *EventLog) Close() error {
	if l.unsubscribe != nil {
		l.unsubscribe()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

func (l *EventLog) handleEvent(e events.Event) {
	_ = l.write(e)
}

func (l *EventLog) write(e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.size+int64(len(data)) > l.maxSize {
		if err := l.rotate(); err != nil {
			return err
		}
	}

	n, err := l.f.Write(data)
	l.size += int64(n)
	return err
}

// rotate moves the current file to path.1, replacing any previous
// generation, and starts a fresh file. Caller holds l.mu.
func (l *EventLog) rotate() error {
	if err := l.f.Close(); err != nil {
		return err
	}
	if err := os.Rename(l.path, l.path+".1"); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	l.f = f
	l.size = 0
	return nil
}

// Tail reads the last n events from a log file. Works without a running
// daemon; missing file yields no events.
func Tail(path string, n int) ([]events.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()

	var evts []events.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var e events.Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue // skip torn writes
		}
		evts = append(evts, e)
		if len(evts) > n {
			evts = evts[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read event log: %w", err)
	}
	return evts, nil
}
