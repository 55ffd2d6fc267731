// File: pkg/transform/sink.go
package transform

import (
	"io"
	"sync"
)

// Sink receives a transform's output. A transform calls Push zero or more times
// and then exactly one of End or Fail.
type Sink interface {
	Push(chunk []byte) error // Emit one chunk of output.
	Fail(err error)          // Terminate the output with a fatal error.
	End() error              // Terminate the output normally.
}

// WriterSink forwards output to an io.Writer and remembers a fatal error.
type WriterSink struct {
	w   io.Writer
	mu  sync.Mutex
	err error
}

// NewWriterSink wraps w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Push writes chunk to the underlying writer.
func (s *WriterSink) Push(chunk []byte) error {
	_, err := s.w.Write(chunk)
	return err
}

// Fail records err. Only the first error is kept.
func (s *WriterSink) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// End is a no-op; closing the writer belongs to its owner.
func (s *WriterSink) End() error { return nil }

// Err returns the error passed to Fail, if any.
func (s *WriterSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Event is one item delivered by a ChanSink: either a chunk or a fatal error.
type Event struct {
	Chunk []byte
	Err   error
}

// ChanSink delivers output as events on a channel, closing it when the
// transform ends or fails.
type ChanSink struct {
	events chan Event
	once   sync.Once
}

// NewChanSink creates a sink whose channel holds up to buffer pending events.
func NewChanSink(buffer int) *ChanSink {
	return &ChanSink{events: make(chan Event, buffer)}
}

// Events returns the receive side of the sink.
func (s *ChanSink) Events() <-chan Event { return s.events }

// Push sends a copy of chunk; the caller may reuse its buffer.
func (s *ChanSink) Push(chunk []byte) error {
	s.events <- Event{Chunk: append([]byte(nil), chunk...)}
	return nil
}

// Fail sends err and closes the channel.
func (s *ChanSink) Fail(err error) {
	s.once.Do(func() {
		s.events <- Event{Err: err}
		close(s.events)
	})
}

// End closes the channel.
func (s *ChanSink) End() error {
	s.once.Do(func() { close(s.events) })
	return nil
}
