// Package sse reads Server-Sent Event frames from a streaming response
// body. It implements just the subset of the wire format the queue
// endpoint emits: "data:" fields, comment lines, and blank-line frame
// separators.
package sse

import (
	"bufio"
	"io"
	"strings"
)

// Streamed frames can carry sizeable payloads (base64 blobs inside the
// completion event), so the line buffer is raised well above bufio's
// 64KB default.
const maxLineSize = 1024 * 1024

// Reader yields the data payload of successive SSE frames.
type Reader struct {
	scanner *bufio.Scanner
}

// NewReader wraps a streaming body. The caller retains ownership of r
// and is responsible for closing it.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
	return &Reader{scanner: scanner}
}

// Next returns the concatenated "data" payload of the next frame. It
// returns io.EOF once the stream ends cleanly, or the transport error
// that interrupted it.
func (r *Reader) Next() (string, error) {
	var data []string

	for r.scanner.Scan() {
		line := strings.TrimSuffix(r.scanner.Text(), "\r")

		// Blank line terminates the current frame.
		if line == "" {
			if len(data) > 0 {
				return strings.Join(data, "\n"), nil
			}
			continue
		}

		// Comment lines keep the connection warm, nothing more.
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		if field == "data" {
			data = append(data, value)
		}
	}

	if err := r.scanner.Err(); err != nil {
		return "", err
	}

	// A final frame without a trailing blank line still counts.
	if len(data) > 0 {
		return strings.Join(data, "\n"), nil
	}

	return "", io.EOF
}
