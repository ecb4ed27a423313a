package eventfile

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/okian/jettag/internal/domain/model"
)

// Events with many jets and constituents easily exceed bufio's default token
// size.
const maxLineBytes = 64 << 20

// Reader decodes one event per line. Blank lines are skipped.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Reader{scanner: s}
}

// Next returns the next event, or io.EOF when the input is exhausted.
func (r *Reader) Next() (model.Event, error) {
	for r.scanner.Scan() {
		r.line++
		line := bytes.TrimSpace(r.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec EventRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return model.Event{}, fmt.Errorf("%w: line %d: %w", ErrDecode, r.line, err)
		}
		event, err := rec.ToEvent()
		if err != nil {
			return model.Event{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		return event, nil
	}
	if err := r.scanner.Err(); err != nil {
		return model.Event{}, fmt.Errorf("read line %d: %w", r.line+1, err)
	}
	return model.Event{}, io.EOF
}

// Line returns the number of the last line read.
func (r *Reader) Line() int { return r.line }

// Writer encodes one result per line. It is safe for concurrent use.
type Writer struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewWriter returns a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w)}
}

// Publish writes the result as a single JSON line.
func (w *Writer) Publish(ctx context.Context, result model.EventResult) error { //nolint:gocritic // hugeParam: matches the sink contract
	if err := ctx.Err(); err != nil {
		return err
	}
	rec := FromResult(&result)
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(rec)
}
