// Package store defines the persistence interface for daily messages and daily response
// records along with a leveldb implementation. The sqlitedb and inmemorydb subpackages
// provide the other implementations
package store

import (
	"io"
	"time"

	"github.com/pkg/errors"
)

// DateLayout is the layout of the date keys ("YYYY-MM-DD") used by every Storer
const DateLayout = "2006-01-02"

// ErrNotFound is returned when a response record doesn't exist for a date
var ErrNotFound = errors.New("not found")

// DailyMessage is a message stored for a given day
type DailyMessage struct {
	Date string

	Text string

	// Sequence orders messages by insertion. It is strictly increasing for a given Storer
	Sequence int64

	CreatedAt time.Time
}

// ResponseRecord tracks whether the report for a date was sent
type ResponseRecord struct {
	Date      string
	Sent      bool
	UpdatedAt time.Time
}

// Storer is implemented by every daily data store
type Storer interface {
	// AppendMessage stores a new message for the date and returns it with its sequence assigned
	AppendMessage(date string, text string, createdAt time.Time) (m DailyMessage, err error)

	// ListMessages returns all messages for the date ordered by sequence (oldest first)
	ListMessages(date string) (messages []DailyMessage, err error)

	// UpsertResponse creates or replaces the response record for the date
	UpsertResponse(date string, sent bool, updatedAt time.Time) (err error)

	// GetResponse returns the response record for the date or ErrNotFound
	GetResponse(date string) (r ResponseRecord, err error)

	io.Closer
}

// Scanner is implemented by storers able to return their complete content
type Scanner interface {
	Scan() (messages []DailyMessage, responses []ResponseRecord, err error)
}

// ScanStorer is a Storer that is also a Scanner
type ScanStorer interface {
	Storer
	Scanner
}

// IsNotFound returns true if the error (or its cause) is ErrNotFound
func IsNotFound(err error) bool {
	return errors.Cause(err) == ErrNotFound
}
