// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream turns a streamed recommendation response body into an
// ordered sequence of typed events.
//
// The body is line-delimited JSON. Every non-empty line is one envelope with
// a "type" discriminator:
//
//	{"type":"progress","message":"Checking today's flower stock..."}
//	{"type":"result","data":{"title":"...","flowers":[...], ...}}
//
// Processing is layered so that chunk boundaries never matter:
//
//   - Decoder turns raw byte chunks into text, carrying incomplete UTF-8
//     sequences over to the next chunk
//   - Splitter buffers text and yields complete lines, keeping the tail
//   - ParseLine classifies one line as Progress, Result or Unknown
//   - Engine drives the read loop and relays events in arrival order
//
// Malformed lines are skipped and counted in Stats; they never end a stream.
// Transport failures end the stream with a *StreamError.
//
// # Usage
//
//	engine := stream.NewEngine(stream.WithLogger(logger))
//	stats, err := engine.Process(ctx, resp.Body, func(ev stream.Event) bool {
//	    switch ev := ev.(type) {
//	    case stream.Progress:
//	        fmt.Println(ev.Message)
//	    case stream.Result:
//	        show(ev.Recommendation)
//	        return false
//	    }
//	    return true
//	})
package stream
