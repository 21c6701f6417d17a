// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitter_Push(t *testing.T) {
	tests := []struct {
		name   string
		pushes []string
		want   []string
		tail   string
	}{
		{
			name:   "single complete line",
			pushes: []string{"a\n"},
			want:   []string{"a"},
		},
		{
			name:   "line split across pushes",
			pushes: []string{"ab", "c\nd"},
			want:   []string{"abc"},
			tail:   "d",
		},
		{
			name:   "several lines in one push",
			pushes: []string{"a\nb\nc\n"},
			want:   []string{"a", "b", "c"},
		},
		{
			name:   "blank lines dropped",
			pushes: []string{"\n\na\n  \n\tb\n"},
			want:   []string{"a", "\tb"},
		},
		{
			name:   "crlf",
			pushes: []string{"a\r\nb\r", "\n"},
			want:   []string{"a", "b"},
		},
		{
			name:   "no newline yet",
			pushes: []string{"abc", "def"},
			tail:   "abcdef",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Splitter
			var got []string
			for _, p := range tt.pushes {
				got = append(got, s.Push(p)...)
			}
			assert.Equal(t, tt.want, got)

			tail, ok := s.Flush()
			assert.Equal(t, tt.tail != "", ok)
			assert.Equal(t, tt.tail, tail)
			assert.Zero(t, s.Buffered())
		})
	}
}

func TestSplitter_FlushBlankTail(t *testing.T) {
	var s Splitter
	s.Push("a\n   ")
	_, ok := s.Flush()
	assert.False(t, ok)
}
