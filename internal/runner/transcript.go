package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Transcript captures every raw protocol line of a plan run to an NDJSON
// file for debugging. A nil *Transcript is valid and records nothing.
type Transcript struct {
	file      *os.File
	path      string
	mu        sync.Mutex
	eventSeq  int
	turn      int
	runID     string
	startTime time.Time
}

// TranscriptEntry is one line of the transcript file
type TranscriptEntry struct {
	Timestamp string          `json:"timestamp"`
	Turn      int             `json:"turn,omitempty"`
	EventSeq  int             `json:"event_seq"`
	Direction string          `json:"direction"` // "stdout", "stderr" or "meta"
	Raw       json.RawMessage `json:"raw,omitempty"`
	Text      string          `json:"text,omitempty"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
}

// NewTranscript creates <dir>/<runID>.ndjson and writes a metadata header
func NewTranscript(dir, runID, spec string) (*Transcript, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create transcript directory: %w", err)
	}

	path := filepath.Join(dir, runID+".ndjson")
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create transcript file: %w", err)
	}

	t := &Transcript{
		file:      file,
		path:      path,
		runID:     runID,
		startTime: time.Now(),
	}
	t.write(TranscriptEntry{
		Direction: "meta",
		Metadata: map[string]any{
			"type":   "run_metadata",
			"run_id": runID,
			"spec":   spec,
		},
	})
	return t, nil
}

// Path returns the transcript file location
func (t *Transcript) Path() string {
	if t == nil {
		return ""
	}
	return t.path
}

// StartTurn marks the beginning of an agent invocation
func (t *Transcript) StartTurn(args []string, sessionID string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.turn++
	turn := t.turn
	t.mu.Unlock()

	t.write(TranscriptEntry{
		Turn:      turn,
		Direction: "meta",
		Metadata: map[string]any{
			"type":       "turn_start",
			"args":       args,
			"session_id": sessionID,
		},
	})
}

// RecordLine logs a raw stdout line. Lines that are not JSON are kept as text.
func (t *Transcript) RecordLine(line []byte) {
	if t == nil {
		return
	}
	entry := TranscriptEntry{Direction: "stdout"}
	if json.Valid(line) {
		entry.Raw = append(json.RawMessage(nil), line...)
	} else {
		entry.Text = string(line)
	}
	t.write(entry)
}

// RecordStderr logs the stderr text captured for one invocation
func (t *Transcript) RecordStderr(text string) {
	if t == nil || text == "" {
		return
	}
	t.write(TranscriptEntry{Direction: "stderr", Text: text})
}

// Close writes a summary line and closes the file
func (t *Transcript) Close() error {
	if t == nil {
		return nil
	}
	t.write(TranscriptEntry{
		Direction: "meta",
		Metadata: map[string]any{
			"type":        "run_end",
			"duration_ms": time.Since(t.startTime).Milliseconds(),
		},
	})

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil
	return err
}

func (t *Transcript) write(entry TranscriptEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return
	}

	t.eventSeq++
	entry.EventSeq = t.eventSeq
	entry.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	if entry.Turn == 0 {
		entry.Turn = t.turn
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	t.file.Write(append(data, '\n'))
}
