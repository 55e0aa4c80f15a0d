// Package streamstack implements a small generic peekable stream: a
// pull-based source of values plus a lookahead buffer, so a caller can
// inspect upcoming items before consuming them. The parser's token
// stream is built on it; the lexer reads its characters directly.
package streamstack

// PullFunc produces the next item from an underlying source. ok is
// false at a clean end of input; err reports a failure reading the
// source itself.
type PullFunc[T any] func() (item T, ok bool, err error)

// Stream wraps a PullFunc with a lookahead buffer so items can be
// peeked at an offset without being consumed.
type Stream[T any] struct {
	pull PullFunc[T]
	buf  []T
	done bool
}

// New wraps pull in a Stream.
func New[T any](pull PullFunc[T]) *Stream[T] {
	return &Stream[T]{pull: pull}
}

// fill ensures the lookahead buffer holds at least n+1 items, or that
// the stream is exhausted.
func (s *Stream[T]) fill(n int) error {
	for len(s.buf) <= n && !s.done {
		item, ok, err := s.pull()
		if err != nil {
			return err
		}
		if !ok {
			s.done = true
			break
		}
		s.buf = append(s.buf, item)
	}
	return nil
}

// Top peeks the next item without consuming it.
func (s *Stream[T]) Top() (T, bool, error) {
	return s.TopAt(0)
}

// TopAt peeks the item n positions ahead (0 = next) without consuming
// anything.
func (s *Stream[T]) TopAt(n int) (T, bool, error) {
	var zero T
	if err := s.fill(n); err != nil {
		return zero, false, err
	}
	if n >= len(s.buf) {
		return zero, false, nil
	}
	return s.buf[n], true, nil
}

// Pop consumes and returns the next item.
func (s *Stream[T]) Pop() (T, bool, error) {
	var zero T
	if err := s.fill(0); err != nil {
		return zero, false, err
	}
	if len(s.buf) == 0 {
		return zero, false, nil
	}
	item := s.buf[0]
	s.buf = s.buf[1:]
	return item, true, nil
}

// PopIf consumes and returns the next item only if it satisfies pred.
func (s *Stream[T]) PopIf(pred func(T) bool) (T, bool, error) {
	var zero T
	item, ok, err := s.Top()
	if err != nil || !ok || !pred(item) {
		return zero, false, err
	}
	return s.Pop()
}
