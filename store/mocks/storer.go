// Package mocks contains a mock of the store package interfaces
package mocks

import (
	"time"

	"github.com/alexandre-normand/dailyscot/store"
	"github.com/stretchr/testify/mock"
)

// Storer holds a mock implementation of store.ScanStorer
type Storer struct {
	mock.Mock
}

// AppendMessage mocks an implementation of AppendMessage
func (ms *Storer) AppendMessage(date string, text string, createdAt time.Time) (m store.DailyMessage, err error) {
	args := ms.Called(date, text, createdAt)

	return args.Get(0).(store.DailyMessage), args.Error(1)
}

// ListMessages mocks an implementation of ListMessages
func (ms *Storer) ListMessages(date string) (messages []store.DailyMessage, err error) {
	args := ms.Called(date)

	return args.Get(0).([]store.DailyMessage), args.Error(1)
}

// UpsertResponse mocks an implementation of UpsertResponse
func (ms *Storer) UpsertResponse(date string, sent bool, updatedAt time.Time) (err error) {
	args := ms.Called(date, sent, updatedAt)

	return args.Error(0)
}

// GetResponse mocks an implementation of GetResponse
func (ms *Storer) GetResponse(date string) (r store.ResponseRecord, err error) {
	args := ms.Called(date)

	return args.Get(0).(store.ResponseRecord), args.Error(1)
}

// Scan mocks an implementation of Scan
func (ms *Storer) Scan() (messages []store.DailyMessage, responses []store.ResponseRecord, err error) {
	args := ms.Called()

	return args.Get(0).([]store.DailyMessage), args.Get(1).([]store.ResponseRecord), args.Error(2)
}

// Close mocks an implementation of Close
func (ms *Storer) Close() (err error) {
	args := ms.Called()

	return args.Error(0)
}
