// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transport streams chat completions from the configured AI providers.
//
// All cataloged providers speak the OpenAI-compatible chat completions
// protocol, so a single client covers OpenRouter, Google, and OpenAI with
// per-provider base URLs.
//
// # Key Types
//
//   - Client: streaming chat client with status tracking and cancellation
//   - Event: one streamed delta (content, reasoning, or terminal error)
//   - Summarizer: background title and navigator summary generation
//
// # Usage
//
//	client := transport.NewClient()
//	events, err := client.Append(ctx, req)
//	if err != nil {
//		return err
//	}
//	for ev := range events {
//		// apply deltas
//	}
//
// Append transitions the client through submitted -> streaming -> ready;
// Stop cancels the in-flight request.
package transport
