// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultLine = `{"type":"result","data":{"title":"Reconciliation","color_theme":"white and pink",` +
	`"flowers":[{"name":"White tulip","role":"main","reason":"forgiveness"}],` +
	`"letter":"I'm sorry.","care_guide":["Change the water daily"],` +
	`"available_stores":[{"store_id":"1","name":"Happy Flowers","address":"Seoul","product_id":"3","product_price":45000}]}}`

func TestParseLine_Progress(t *testing.T) {
	ev := ParseLine(`{"type":"progress","message":"Checking stock..."}`)
	assert.Equal(t, Progress{Message: "Checking stock..."}, ev)
	assert.Equal(t, TypeProgress, ev.Kind())
}

func TestParseLine_Result(t *testing.T) {
	ev := ParseLine(resultLine)
	res, ok := ev.(Result)
	require.True(t, ok, "got %#v", ev)

	rec := res.Recommendation
	assert.Equal(t, "Reconciliation", rec.Title)
	assert.Equal(t, "white and pink", rec.ColorTheme)
	require.Len(t, rec.Flowers, 1)
	assert.Equal(t, "White tulip", rec.Flowers[0].Name)
	assert.Equal(t, []string{"Change the water daily"}, rec.CareGuide)
	require.Len(t, rec.AvailableStores, 1)
	require.NotNil(t, rec.AvailableStores[0].ProductPrice)
	assert.Equal(t, 45000.0, *rec.AvailableStores[0].ProductPrice)
}

func TestParseLine_StoreWithoutProduct(t *testing.T) {
	ev := ParseLine(`{"type":"result","data":{"title":"t","available_stores":[{"store_id":"2","name":"n","address":"a"}]}}`)
	res := ev.(Result)
	assert.False(t, res.Recommendation.AvailableStores[0].Orderable())
	assert.Nil(t, res.Recommendation.AvailableStores[0].ProductPrice)
}

func TestParseLine_Unknown(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantType  string
		malformed bool
	}{
		{"truncated json", `{"type":"progress","mess`, "", true},
		{"not json", `hello`, "", true},
		{"array", `[1,2]`, "", true},
		{"missing type", `{"message":"x"}`, "", true},
		{"numeric type", `{"type":3}`, "", true},
		{"unhandled type", `{"type":"heartbeat"}`, "heartbeat", false},
		{"result without data", `{"type":"result"}`, "result", true},
		{"result data wrong shape", `{"type":"result","data":{"flowers":"rose"}}`, "result", true},
		{"progress message not string", `{"type":"progress","message":{"a":1}}`, "progress", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := ParseLine(tt.line)
			u, ok := ev.(Unknown)
			require.True(t, ok, "got %#v", ev)
			assert.Equal(t, tt.wantType, u.Type)
			assert.Equal(t, tt.line, u.Line)
			if tt.malformed {
				assert.True(t, errors.Is(u.Err, ErrMalformedLine), "err = %v", u.Err)
			} else {
				assert.NoError(t, u.Err)
			}
		})
	}
}

func TestParseLine_ProgressWithoutMessage(t *testing.T) {
	assert.Equal(t, Progress{}, ParseLine(`{"type":"progress"}`))
}
