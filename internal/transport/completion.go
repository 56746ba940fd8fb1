// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jeranaias/chatmux/internal/message"
	"github.com/jeranaias/chatmux/internal/registry"
)

// =============================================================================
// SUMMARIZER
// =============================================================================

const (
	titlePrompt = "Generate a short title (at most 6 words) for a conversation " +
		"that starts with the following message. Reply with the title only, " +
		"no quotes or punctuation around it."

	summaryPrompt = "Summarize the following chat message in one short phrase " +
		"(at most 8 words) suitable for a navigation outline. Reply with the " +
		"phrase only."

	// maxTitleLen caps stored titles; completions occasionally ramble.
	maxTitleLen = 80
)

// SummaryStore is the subset of the store the summarizer writes to.
type SummaryStore interface {
	SetThreadTitle(id, title string) error
	SaveSummary(sum message.Summary) error
}

// CompleteOpts routes a completion result to the right record.
type CompleteOpts struct {
	ThreadID  string
	MessageID string
	// IsTitle makes the completion a thread title instead of a message summary.
	IsTitle bool
}

// Summarizer generates thread titles and navigator summaries in the
// background. Requests are rate limited so a burst of sends does not flood
// the completion endpoint.
type Summarizer struct {
	client  *Client
	store   SummaryStore
	limiter *rate.Limiter

	model  registry.ModelConfig
	apiKey string
}

// NewSummarizer creates a summarizer using the given model and key.
func NewSummarizer(client *Client, store SummaryStore, model registry.ModelConfig, apiKey string) *Summarizer {
	return &Summarizer{
		client:  client,
		store:   store,
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 3),
		model:   model,
		apiKey:  apiKey,
	}
}

// Complete generates a title or summary for text and persists it. Blocks
// until the rate limiter admits the request, then until the completion
// returns, so callers run it off the UI goroutine.
func (s *Summarizer) Complete(ctx context.Context, text string, opts CompleteOpts) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	prompt := summaryPrompt
	if opts.IsTitle {
		prompt = titlePrompt
	}

	msgs := []*message.Message{
		{
			Role:    message.RoleSystem,
			Content: prompt,
		},
		{
			Role:    message.RoleUser,
			Parts:   []message.Part{message.NewTextPart(text)},
			Content: text,
		},
	}

	result, err := s.client.Complete(ctx, StreamRequest{
		Model:    s.model,
		APIKey:   s.apiKey,
		Messages: msgs,
	})
	if err != nil {
		return fmt.Errorf("completion failed: %w", err)
	}

	result = cleanCompletion(result)
	if result == "" {
		return nil
	}

	if opts.IsTitle {
		if err := s.store.SetThreadTitle(opts.ThreadID, result); err != nil {
			return fmt.Errorf("failed to store title: %w", err)
		}
		log.Printf("titled thread %s: %q", opts.ThreadID, result)
		return nil
	}

	sum := message.Summary{
		ID:        uuid.NewString(),
		ThreadID:  opts.ThreadID,
		MessageID: opts.MessageID,
		Content:   result,
		CreatedAt: time.Now(),
	}
	if err := s.store.SaveSummary(sum); err != nil {
		return fmt.Errorf("failed to store summary: %w", err)
	}
	return nil
}

// cleanCompletion strips quotes and whitespace the model wraps around short
// completions, and caps the length.
func cleanCompletion(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	s = strings.TrimSpace(s)
	if len(s) > maxTitleLen {
		runes := []rune(s)
		if len(runes) > maxTitleLen {
			s = string(runes[:maxTitleLen])
		}
	}
	return s
}
