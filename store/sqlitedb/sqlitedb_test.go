package sqlitedb_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/alexandre-normand/dailyscot/store"
	"github.com/alexandre-normand/dailyscot/store/sqlitedb"
	"github.com/alexandre-normand/dailyscot/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreatesDatabaseFile(t *testing.T) {
	dir := t.TempDir()

	sdb, err := sqlitedb.New("messages", filepath.Join(dir, "nested"))
	require.NoError(t, err)
	defer sdb.Close()

	assert.Equal(t, filepath.Join(dir, "nested", "messages.db"), sdb.Path)
	assert.FileExists(t, sdb.Path)
}

func TestConformance(t *testing.T) {
	storetest.RunConformance(t, func(t *testing.T) store.Storer {
		sdb, err := sqlitedb.New("messages", t.TempDir())
		require.NoError(t, err)
		return sdb
	})
}

func TestDataSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, time.March, 3, 9, 15, 0, 0, time.UTC)

	sdb, err := sqlitedb.New("messages", dir)
	require.NoError(t, err)
	_, err = sdb.AppendMessage("2026-03-03", "Fixed bug X", now)
	require.NoError(t, err)
	require.NoError(t, sdb.UpsertResponse("2026-03-03", true, now))
	require.NoError(t, sdb.Close())

	sdb, err = sqlitedb.New("messages", dir)
	require.NoError(t, err)
	defer sdb.Close()

	msgs, resps, err := sdb.Scan()

	require.NoError(t, err)
	assert.Equal(t, []string{"Fixed bug X"}, storetest.Texts(msgs))
	if assert.Len(t, resps, 1) {
		assert.True(t, resps[0].Sent)
		assert.True(t, now.Equal(resps[0].UpdatedAt))
	}
}

func TestGetResponseAfterCloseShouldResultInError(t *testing.T) {
	sdb, err := sqlitedb.New("messages", t.TempDir())
	require.NoError(t, err)
	require.NoError(t, sdb.Close())

	_, err = sdb.GetResponse("2026-03-03")

	assert.Error(t, err)
	assert.False(t, store.IsNotFound(err))
}
