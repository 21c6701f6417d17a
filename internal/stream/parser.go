// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"encoding/json"

	"github.com/nothing0113/database5team/internal/model"
	"github.com/tidwall/gjson"
)

// Envelope discriminators.
const (
	TypeProgress = "progress"
	TypeResult   = "result"
)

// =============================================================================
// EVENTS
// =============================================================================

// Event is one parsed envelope: Progress, Result or Unknown.
type Event interface {
	// Kind returns the envelope discriminator, or "" when there was none.
	Kind() string
}

// Progress carries interim status text.
type Progress struct {
	Message string
}

func (Progress) Kind() string { return TypeProgress }

// Result carries the final recommendation.
type Result struct {
	Recommendation model.Recommendation
}

func (Result) Kind() string { return TypeResult }

// Unknown is a line that produced no event. Err is nil when the line was a
// well-formed envelope with a discriminator nobody handles, and a
// *StreamError of type ErrTypeMalformedLine otherwise.
type Unknown struct {
	Type string
	Line string
	Err  error
}

func (u Unknown) Kind() string { return u.Type }

// =============================================================================
// PARSING
// =============================================================================

// ParseLine classifies one line. It never panics and never fails: anything
// that is not a usable progress or result envelope comes back as Unknown.
func ParseLine(line string) Event {
	if !gjson.Valid(line) {
		return Unknown{Line: line, Err: malformed("invalid JSON", nil)}
	}
	env := gjson.Parse(line)
	if !env.IsObject() {
		return Unknown{Line: line, Err: malformed("envelope is not an object", nil)}
	}

	typ := env.Get("type")
	if typ.Type != gjson.String {
		return Unknown{Line: line, Err: malformed("missing type", nil)}
	}

	switch typ.Str {
	case TypeProgress:
		msg := env.Get("message")
		if msg.Exists() && msg.Type != gjson.String {
			return Unknown{Type: typ.Str, Line: line, Err: malformed("progress message is not a string", nil)}
		}
		return Progress{Message: msg.Str}

	case TypeResult:
		data := env.Get("data")
		if !data.IsObject() {
			return Unknown{Type: typ.Str, Line: line, Err: malformed("result data is not an object", nil)}
		}
		var rec model.Recommendation
		if err := json.Unmarshal([]byte(data.Raw), &rec); err != nil {
			return Unknown{Type: typ.Str, Line: line, Err: malformed("result data", err)}
		}
		return Result{Recommendation: rec}

	default:
		return Unknown{Type: typ.Str, Line: line}
	}
}
