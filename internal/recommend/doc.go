// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package recommend is the HTTP client for the flower recommendation API.
//
// Recommend issues POST /api/recommend?situation=... with no body and hands
// back the live response body, which the stream package consumes
// incrementally. The client never retries; a failed request is reported as a
// *ClientError and the user decides whether to send again.
//
// # Usage
//
//	client := recommend.NewClient(&recommend.Config{BaseURL: "http://localhost:8000"})
//	body, err := client.Recommend(ctx, "My friend got a new job")
//	if err != nil {
//	    return err
//	}
//	defer body.Close()
package recommend
