package inmemorydb_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/alexandre-normand/dailyscot/store"
	"github.com/alexandre-normand/dailyscot/store/inmemorydb"
	"github.com/alexandre-normand/dailyscot/store/mocks"
	"github.com/alexandre-normand/dailyscot/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, time.March, 3, 9, 15, 0, 0, time.UTC)

func TestVolatileConformance(t *testing.T) {
	storetest.RunConformance(t, func(t *testing.T) store.Storer {
		return inmemorydb.NewVolatile()
	})
}

func TestWriteThroughConformance(t *testing.T) {
	storetest.RunConformance(t, func(t *testing.T) store.Storer {
		imdb, err := inmemorydb.New(inmemorydb.NewVolatile())
		require.NoError(t, err)
		return imdb
	})
}

func TestNewWithErrorLoadingPersistentContent(t *testing.T) {
	ms := new(mocks.Storer)
	ms.On("Scan").Return([]store.DailyMessage(nil), []store.ResponseRecord(nil), fmt.Errorf("error with persistent db"))

	_, err := inmemorydb.New(ms)

	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "error with persistent db")
	}
}

func TestNewLoadsPersistentContent(t *testing.T) {
	ms := new(mocks.Storer)
	ms.On("Scan").Return([]store.DailyMessage{
		{Date: "2026-03-03", Text: "Fixed bug X", Sequence: 7, CreatedAt: now},
		{Date: "2026-03-02", Text: "old", Sequence: 3, CreatedAt: now},
	}, []store.ResponseRecord{{Date: "2026-03-02", Sent: true, UpdatedAt: now}}, nil)

	imdb, err := inmemorydb.New(ms)
	require.NoError(t, err)

	msgs, err := imdb.ListMessages("2026-03-03")
	require.NoError(t, err)
	assert.Equal(t, []string{"Fixed bug X"}, storetest.Texts(msgs))

	r, err := imdb.GetResponse("2026-03-02")
	require.NoError(t, err)
	assert.True(t, r.Sent)

	// Reads never reach the persistent storer
	ms.AssertNotCalled(t, "ListMessages", mock.Anything)
	ms.AssertNotCalled(t, "GetResponse", mock.Anything)
}

func TestAppendWritesThroughAndUsesPersistentSequence(t *testing.T) {
	ms := new(mocks.Storer)
	ms.On("Scan").Return([]store.DailyMessage{}, []store.ResponseRecord{}, nil)
	ms.On("AppendMessage", "2026-03-03", "Reviewed PR #42", now).Return(store.DailyMessage{Date: "2026-03-03", Text: "Reviewed PR #42", Sequence: 42, CreatedAt: now}, nil)

	imdb, err := inmemorydb.New(ms)
	require.NoError(t, err)

	m, err := imdb.AppendMessage("2026-03-03", "Reviewed PR #42", now)

	require.NoError(t, err)
	assert.Equal(t, int64(42), m.Sequence)
	ms.AssertExpectations(t)
}

func TestFailedWriteThroughIsNotKept(t *testing.T) {
	ms := new(mocks.Storer)
	ms.On("Scan").Return([]store.DailyMessage{}, []store.ResponseRecord{}, nil)
	ms.On("AppendMessage", "2026-03-03", "lost", now).Return(store.DailyMessage{}, fmt.Errorf("disk full"))
	ms.On("UpsertResponse", "2026-03-03", true, now).Return(fmt.Errorf("disk full"))

	imdb, err := inmemorydb.New(ms)
	require.NoError(t, err)

	_, err = imdb.AppendMessage("2026-03-03", "lost", now)
	assert.Error(t, err)

	err = imdb.UpsertResponse("2026-03-03", true, now)
	assert.Error(t, err)

	msgs, err := imdb.ListMessages("2026-03-03")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	_, err = imdb.GetResponse("2026-03-03")
	assert.True(t, store.IsNotFound(err))
}

func TestCloseClosesPersistentStorer(t *testing.T) {
	ms := new(mocks.Storer)
	ms.On("Scan").Return([]store.DailyMessage{}, []store.ResponseRecord{}, nil)
	ms.On("Close").Return(nil)

	imdb, err := inmemorydb.New(ms)
	require.NoError(t, err)

	assert.NoError(t, imdb.Close())
	ms.AssertCalled(t, "Close")
}
