// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import "strings"

// Splitter accumulates decoded text and yields complete lines in order.
// Text after the last newline stays buffered until more text arrives or
// Flush is called.
type Splitter struct {
	buf strings.Builder
}

// Push appends text and returns every line it completed, newline stripped.
// Blank lines are dropped. A trailing carriage return is removed so CRLF
// bodies work too.
func (s *Splitter) Push(text string) []string {
	if text == "" {
		return nil
	}
	if !strings.Contains(text, "\n") {
		s.buf.WriteString(text)
		return nil
	}

	s.buf.WriteString(text)
	data := s.buf.String()
	last := strings.LastIndexByte(data, '\n')

	var lines []string
	for _, line := range strings.Split(data[:last], "\n") {
		if line = strings.TrimSuffix(line, "\r"); !isBlank(line) {
			lines = append(lines, line)
		}
	}

	s.buf.Reset()
	s.buf.WriteString(data[last+1:])
	return lines
}

// Flush returns the buffered remainder as a final line. End of stream acts as
// an implicit line terminator. ok is false when nothing but whitespace was
// left.
func (s *Splitter) Flush() (line string, ok bool) {
	line = strings.TrimSuffix(s.buf.String(), "\r")
	s.buf.Reset()
	if isBlank(line) {
		return "", false
	}
	return line, true
}

// Buffered returns the number of bytes waiting for a newline.
func (s *Splitter) Buffered() int {
	return s.buf.Len()
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
