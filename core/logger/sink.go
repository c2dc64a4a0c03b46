package logger

import (
	"errors"
	"io"
	"sync"

	"github.com/natefinch/lumberjack"
)

// sink serializes whole lines onto every output. A failing output is
// reported once and dropped so the remaining outputs keep receiving lines.
// Only rotated files are closed; process streams are borrowed.
type sink struct {
	mu      sync.Mutex
	outputs []io.Writer
	closers []io.Closer
	failed  error
}

func newSink(outputs ...io.Writer) *sink {
	s := &sink{}
	for _, w := range outputs {
		if w == nil {
			continue
		}
		s.outputs = append(s.outputs, w)
		if r, ok := w.(*lumberjack.Logger); ok {
			s.closers = append(s.closers, r)
		}
	}
	return s
}

func (s *sink) writeLine(line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	kept := s.outputs[:0]
	for _, w := range s.outputs {
		if _, err := w.Write(line); err != nil {
			errs = append(errs, err)
			continue
		}
		kept = append(kept, w)
	}
	s.outputs = kept
	if err := errors.Join(errs...); err != nil {
		if s.failed == nil {
			s.failed = err
		}
		return err
	}
	return nil
}

// close releases closable outputs (rotated files) and returns the first
// write failure seen during the sink's lifetime.
func (s *sink) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	errs := []error{s.failed}
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	s.outputs = nil
	s.closers = nil
	return errors.Join(errs...)
}
