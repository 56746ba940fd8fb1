// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"github.com/jeranaias/chatmux/internal/message"
)

// =============================================================================
// WIRE TYPES
// =============================================================================

// wireMessage is one message in a chat completions request. Content is either
// a plain string (assistant and system turns) or a list of typed parts
// (user turns, which may carry images, audio, and attachment text).
type wireMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// wirePart is one element of a multi-part content array.
type wirePart struct {
	Type     string         `json:"type"`
	Text     string         `json:"text,omitempty"`
	ImageURL *wireImageURL  `json:"image_url,omitempty"`
	Audio    *wireAudioData `json:"input_audio,omitempty"`
}

type wireImageURL struct {
	URL string `json:"url"`
}

type wireAudioData struct {
	Data   string `json:"data"`
	Format string `json:"format"`
}

// chatRequest is the chat completions request body.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// streamChunk is one SSE chunk of a streaming chat response. Reasoning
// models interleave reasoning deltas with content deltas.
type streamChunk struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Content   string `json:"content"`
			Reasoning string `json:"reasoning,omitempty"`
			Role      string `json:"role,omitempty"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (c *streamChunk) content() string {
	if len(c.Choices) > 0 {
		return c.Choices[0].Delta.Content
	}
	return ""
}

func (c *streamChunk) reasoning() string {
	if len(c.Choices) > 0 {
		return c.Choices[0].Delta.Reasoning
	}
	return ""
}

func (c *streamChunk) done() bool {
	return len(c.Choices) > 0 && c.Choices[0].FinishReason != ""
}

// chatResponse is a non-streaming chat completions response, used by the
// title and summary completions.
type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (r *chatResponse) content() string {
	if len(r.Choices) > 0 {
		return r.Choices[0].Message.Content
	}
	return ""
}

// apiErrorResponse is the provider error envelope.
type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// MESSAGE ENCODING
// =============================================================================

// encodeMessages converts the conversation history into wire messages.
// User turns carry the full part list, hidden attachment text included, so
// the model sees extracted file content that the UI never renders.
func encodeMessages(msgs []*message.Message) []wireMessage {
	out := make([]wireMessage, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case message.RoleUser:
			out = append(out, wireMessage{
				Role:    msg.Role.String(),
				Content: encodeParts(message.APIParts(msg.Parts)),
			})
		default:
			out = append(out, wireMessage{
				Role:    msg.Role.String(),
				Content: msg.Content,
			})
		}
	}
	return out
}

func encodeParts(parts []message.Part) []wirePart {
	out := make([]wirePart, 0, len(parts))
	for _, p := range parts {
		switch p.Type {
		case message.PartText:
			out = append(out, wirePart{Type: "text", Text: p.Text})
		case message.PartImage:
			if p.Image != nil {
				out = append(out, wirePart{
					Type:     "image_url",
					ImageURL: &wireImageURL{URL: p.Image.URL},
				})
			}
		case message.PartAudio:
			if p.Audio != nil {
				out = append(out, wirePart{
					Type:  "input_audio",
					Audio: &wireAudioData{Data: p.Audio.Data, Format: p.Audio.Format},
				})
			}
		}
	}
	return out
}
