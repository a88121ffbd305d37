// Package storetest holds the behavior every store.Storer implementation must honor,
// runnable against any implementation from its own tests
package storetest

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alexandre-normand/dailyscot/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Texts returns the text of every message, in order
func Texts(messages []store.DailyMessage) (texts []string) {
	texts = make([]string, 0, len(messages))
	for _, m := range messages {
		texts = append(texts, m.Text)
	}

	return texts
}

// RunConformance runs the Storer behavior tests. newStorer must return a new empty
// Storer for every call. Storers are closed by the tests
func RunConformance(t *testing.T, newStorer func(t *testing.T) store.Storer) {
	now := time.Date(2026, time.March, 3, 9, 15, 0, 0, time.UTC)

	t.Run("listOnEmptyDateIsEmpty", func(t *testing.T) {
		s := newStorer(t)
		defer s.Close()

		msgs, err := s.ListMessages("2026-03-03")

		require.NoError(t, err)
		assert.NotNil(t, msgs)
		assert.Empty(t, msgs)
	})

	t.Run("appendPreservesInsertionOrderPerDate", func(t *testing.T) {
		s := newStorer(t)
		defer s.Close()

		for _, m := range []struct{ date, text string }{{"2026-03-03", "Fixed bug X"}, {"2026-03-02", "old news"}, {"2026-03-03", "Reviewed PR #42"}, {"2026-03-03", "Lunch"}} {
			_, err := s.AppendMessage(m.date, m.text, now)
			require.NoError(t, err)
		}

		msgs, err := s.ListMessages("2026-03-03")

		require.NoError(t, err)
		assert.Equal(t, []string{"Fixed bug X", "Reviewed PR #42", "Lunch"}, Texts(msgs))
		for i := 1; i < len(msgs); i++ {
			assert.Greater(t, msgs[i].Sequence, msgs[i-1].Sequence)
		}
		assert.Equal(t, "2026-03-03", msgs[0].Date)
		assert.True(t, now.Equal(msgs[0].CreatedAt))
	})

	t.Run("appendReturnsStoredMessage", func(t *testing.T) {
		s := newStorer(t)
		defer s.Close()

		m, err := s.AppendMessage("2026-03-03", "shipped it", now)

		require.NoError(t, err)
		assert.Equal(t, "2026-03-03", m.Date)
		assert.Equal(t, "shipped it", m.Text)
		assert.NotZero(t, m.Sequence)
	})

	t.Run("getMissingResponseIsNotFound", func(t *testing.T) {
		s := newStorer(t)
		defer s.Close()

		_, err := s.GetResponse("2026-03-03")

		assert.True(t, store.IsNotFound(err), "expected not found but got %v", err)
	})

	t.Run("upsertResponseReplacesPerDate", func(t *testing.T) {
		s := newStorer(t)
		defer s.Close()

		require.NoError(t, s.UpsertResponse("2026-03-03", false, now))
		require.NoError(t, s.UpsertResponse("2026-03-03", true, now.Add(time.Minute)))

		r, err := s.GetResponse("2026-03-03")

		require.NoError(t, err)
		assert.Equal(t, "2026-03-03", r.Date)
		assert.True(t, r.Sent)
		assert.True(t, now.Add(time.Minute).Equal(r.UpdatedAt))

		_, err = s.GetResponse("2026-03-04")
		assert.True(t, store.IsNotFound(err))
	})

	t.Run("concurrentAppendsAreAllKept", func(t *testing.T) {
		s := newStorer(t)
		defer s.Close()

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := s.AppendMessage("2026-03-03", fmt.Sprintf("msg %d", i), now)
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		msgs, err := s.ListMessages("2026-03-03")
		require.NoError(t, err)
		assert.Len(t, msgs, 20)

		seen := make(map[int64]bool)
		for _, m := range msgs {
			assert.False(t, seen[m.Sequence], "duplicate sequence %d", m.Sequence)
			seen[m.Sequence] = true
		}
	})
}
