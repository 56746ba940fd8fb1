// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatmux/internal/message"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "chatmux.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateThread(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.CreateThread("t1"))

	exists, err := s.ThreadExists("t1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.ThreadExists("t2")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, s.CreateThread("t1"), ErrThreadExists)
}

func TestThreadTitle(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.CreateThread("t1"))

	require.NoError(t, s.SetThreadTitle("t1", "Planning a trip"))

	thread, err := s.GetThread("t1")
	require.NoError(t, err)
	assert.Equal(t, "Planning a trip", thread.Title)

	assert.ErrorIs(t, s.SetThreadTitle("missing", "x"), ErrThreadNotFound)
}

func TestMessageRoundTrip(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.CreateThread("t1"))

	parts := []message.Part{
		message.NewTextPart("see attached"),
		message.NewHiddenTextPart("\n\n[File: notes.txt]\ntodo list"),
	}
	msg := message.NewUserMessage("m1", parts)
	require.NoError(t, s.CreateMessage("t1", msg))

	got, err := s.MessagesByThread("t1")
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "m1", got[0].ID)
	assert.Equal(t, message.RoleUser, got[0].Role)
	require.Len(t, got[0].Parts, 2)
	assert.False(t, got[0].Parts[0].Hidden)
	assert.True(t, got[0].Parts[1].Hidden)
	assert.Contains(t, got[0].Content, "notes.txt")
}

func TestMessageOrdering(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.CreateThread("t1"))

	base := time.Now()
	for i, text := range []string{"first", "second", "third"} {
		msg := message.NewUserMessage(text, []message.Part{message.NewTextPart(text)})
		msg.CreatedAt = base.Add(time.Duration(i) * time.Millisecond)
		require.NoError(t, s.CreateMessage("t1", msg))
	}

	got, err := s.MessagesByThread("t1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].ID)
	assert.Equal(t, "second", got[1].ID)
	assert.Equal(t, "third", got[2].ID)
}

func TestUpdateMessageParts(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.CreateThread("t1"))

	msg := message.NewUserMessage("m1", []message.Part{message.NewTextPart("draft")})
	require.NoError(t, s.CreateMessage("t1", msg))

	edited := []message.Part{message.NewTextPart("final")}
	require.NoError(t, s.UpdateMessageParts("m1", edited))

	got, err := s.MessagesByThread("t1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "final", got[0].Content)

	assert.ErrorIs(t, s.UpdateMessageParts("missing", edited), ErrMessageNotFound)
}

func TestListThreadsOrder(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.CreateThread("old"))
	require.NoError(t, s.CreateThread("new"))

	// A message bumps last_message_at, moving the thread to the front.
	msg := message.NewUserMessage("m1", []message.Part{message.NewTextPart("hi")})
	msg.CreatedAt = time.Now().Add(time.Hour)
	require.NoError(t, s.CreateMessage("old", msg))

	threads, err := s.ListThreads()
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, "old", threads[0].ID)
}

func TestDeleteThreadCascades(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.CreateThread("t1"))

	msg := message.NewUserMessage("m1", []message.Part{message.NewTextPart("hi")})
	require.NoError(t, s.CreateMessage("t1", msg))
	require.NoError(t, s.SaveSummary(message.Summary{
		ID: "s1", ThreadID: "t1", MessageID: "m1", Content: "greeting", CreatedAt: time.Now(),
	}))

	require.NoError(t, s.DeleteThread("t1"))

	msgs, err := s.MessagesByThread("t1")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	sums, err := s.MessageSummaries("t1")
	require.NoError(t, err)
	assert.Empty(t, sums)
}

func TestSummaries(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.CreateThread("t1"))

	base := time.Now()
	for i, content := range []string{"asked about Go", "asked about SQLite"} {
		require.NoError(t, s.SaveSummary(message.Summary{
			ID:        content,
			ThreadID:  "t1",
			MessageID: "m1",
			Content:   content,
			CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
		}))
	}

	sums, err := s.MessageSummaries("t1")
	require.NoError(t, err)
	require.Len(t, sums, 2)
	assert.Equal(t, "asked about Go", sums[0].Content)
	assert.Equal(t, "asked about SQLite", sums[1].Content)
}

func TestWatchNotifies(t *testing.T) {
	s := openTestStore(t)
	ch := s.Watch()

	require.NoError(t, s.CreateThread("t1"))

	select {
	case change := <-ch:
		assert.Equal(t, "t1", change.ThreadID)
	case <-time.After(time.Second):
		t.Fatal("expected a change notification")
	}
}
