package fileio

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/leocov-dev/launchwiz/core"
)

// Event is one line of events.log.
type Event struct {
	Time   time.Time `json:"time"`
	Status string    `json:"status"`
	Detail string    `json:"detail,omitempty"`
}

// StateWriter publishes the status document and appends to the event log.
type StateWriter struct {
	mu        sync.Mutex
	statePath string
	eventPath string
	now       func() time.Time
}

func NewStateWriter(paths core.InstancePaths) *StateWriter {
	return &StateWriter{
		statePath: paths.StateFile,
		eventPath: paths.EventLog,
		now:       time.Now,
	}
}

// Report replaces state.json and records the transition in events.log.
func (w *StateWriter) Report(status, detail string) error {
	return w.ReportProcess(status, detail, 0)
}

// ReportProcess is Report for a status that belongs to a live game process.
func (w *StateWriter) ReportProcess(status, detail string, pid int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	ts := w.now().UTC()
	doc := core.StateDocument{Status: status, Detail: detail, Timestamp: ts, PID: pid}
	if err := WriteJSON(w.statePath, doc); err != nil {
		return err
	}
	return w.appendEvent(Event{Time: ts, Status: status, Detail: detail})
}

// Event appends to events.log without touching state.json.
func (w *StateWriter) Event(status, detail string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.appendEvent(Event{Time: w.now().UTC(), Status: status, Detail: detail})
}

func (w *StateWriter) appendEvent(ev Event) error {
	if err := os.MkdirAll(filepath.Dir(w.eventPath), os.ModePerm); err != nil {
		return err
	}
	f, err := os.OpenFile(w.eventPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	line, err := json.Marshal(ev)
	if err != nil {
		f.Close()
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func LoadState(path string) (core.StateDocument, error) {
	var doc core.StateDocument
	err := ReadJSON(path, &doc)
	return doc, err
}

// ReadEvents parses events.log, skipping lines that are not valid JSON.
func ReadEvents(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, scanner.Err()
}
