package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrReadCanceled is returned by ReadLine when its context ends first.
var ErrReadCanceled = errors.New("read canceled")

const maxLineLength = 64 * 1024

type lineResult struct {
	err  error
	text string
}

// LineReader reads lines from a blocking source without tying up the caller.
// A single goroutine scans the source, so a line that arrives after a
// canceled ReadLine is kept for the next call.
type LineReader struct {
	src   io.Reader
	lines chan lineResult
	once  sync.Once
}

// NewLineReader wraps src. Scanning starts on the first ReadLine.
func NewLineReader(src io.Reader) *LineReader {
	return &LineReader{
		src:   src,
		lines: make(chan lineResult, 1),
	}
}

func (r *LineReader) scan() {
	defer close(r.lines)

	scanner := bufio.NewScanner(r.src)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)
	for scanner.Scan() {
		r.lines <- lineResult{text: scanner.Text()}
	}
	if err := scanner.Err(); err != nil {
		r.lines <- lineResult{err: err}
	}
}

// ReadLine returns the next line with surrounding whitespace removed.
// It returns io.EOF once the source is exhausted.
func (r *LineReader) ReadLine(ctx context.Context) (string, error) {
	if ctx.Err() != nil {
		return "", ErrReadCanceled
	}
	r.once.Do(func() { go r.scan() })

	select {
	case <-ctx.Done():
		return "", ErrReadCanceled
	case res, ok := <-r.lines:
		if !ok {
			return "", io.EOF
		}
		if res.err != nil {
			return "", res.err
		}
		return strings.TrimSpace(res.text), nil
	}
}
