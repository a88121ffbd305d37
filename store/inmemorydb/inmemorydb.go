package inmemorydb

import (
	"sync"
	"time"

	"github.com/alexandre-normand/dailyscot/store"
)

// InMemoryDB implements store.Storer and keeps a copy of everything in memory
// while writing through appends and upserts to the wrapped (persistent) storer, if any
type InMemoryDB struct {
	persistentStorer store.ScanStorer

	mu        sync.RWMutex
	lastSeq   int64
	messages  map[string][]store.DailyMessage
	responses map[string]store.ResponseRecord
}

// New returns a new instance of InMemoryDB wrapping the persistent ScanStorer.
// Note that instantiation might have some latency induced by the initial scan to load
// the current database content from the persistentStorer in memory
func New(storer store.ScanStorer) (imdb *InMemoryDB, err error) {
	imdb = NewVolatile()
	imdb.persistentStorer = storer

	messages, responses, err := storer.Scan()
	if err != nil {
		return nil, err
	}

	for _, m := range messages {
		imdb.messages[m.Date] = append(imdb.messages[m.Date], m)
		if m.Sequence > imdb.lastSeq {
			imdb.lastSeq = m.Sequence
		}
	}

	for _, r := range responses {
		imdb.responses[r.Date] = r
	}

	return imdb, nil
}

// NewVolatile returns an InMemoryDB without persistence. Its content is lost on exit
func NewVolatile() (imdb *InMemoryDB) {
	imdb = new(InMemoryDB)
	imdb.messages = make(map[string][]store.DailyMessage)
	imdb.responses = make(map[string]store.ResponseRecord)

	return imdb
}

// AppendMessage writes the message through to the persistent storer and, on success,
// keeps it in memory
func (imdb *InMemoryDB) AppendMessage(date string, text string, createdAt time.Time) (m store.DailyMessage, err error) {
	imdb.mu.Lock()
	defer imdb.mu.Unlock()

	if imdb.persistentStorer != nil {
		m, err = imdb.persistentStorer.AppendMessage(date, text, createdAt)
		if err != nil {
			return m, err
		}
	} else {
		m = store.DailyMessage{Date: date, Text: text, Sequence: imdb.lastSeq + 1, CreatedAt: createdAt}
	}

	if m.Sequence > imdb.lastSeq {
		imdb.lastSeq = m.Sequence
	}
	imdb.messages[date] = append(imdb.messages[date], m)

	return m, nil
}

// ListMessages returns a copy of the messages of the date
func (imdb *InMemoryDB) ListMessages(date string) (messages []store.DailyMessage, err error) {
	imdb.mu.RLock()
	defer imdb.mu.RUnlock()

	messages = make([]store.DailyMessage, len(imdb.messages[date]))
	copy(messages, imdb.messages[date])

	return messages, nil
}

// UpsertResponse writes the record through to the persistent storer and, on success,
// keeps it in memory
func (imdb *InMemoryDB) UpsertResponse(date string, sent bool, updatedAt time.Time) (err error) {
	imdb.mu.Lock()
	defer imdb.mu.Unlock()

	if imdb.persistentStorer != nil {
		if err = imdb.persistentStorer.UpsertResponse(date, sent, updatedAt); err != nil {
			return err
		}
	}

	imdb.responses[date] = store.ResponseRecord{Date: date, Sent: sent, UpdatedAt: updatedAt}

	return nil
}

// GetResponse returns the record of the date or store.ErrNotFound
func (imdb *InMemoryDB) GetResponse(date string) (r store.ResponseRecord, err error) {
	imdb.mu.RLock()
	defer imdb.mu.RUnlock()

	r, ok := imdb.responses[date]
	if !ok {
		return r, store.ErrNotFound
	}

	return r, nil
}

// Scan returns everything held in memory
func (imdb *InMemoryDB) Scan() (messages []store.DailyMessage, responses []store.ResponseRecord, err error) {
	imdb.mu.RLock()
	defer imdb.mu.RUnlock()

	messages = make([]store.DailyMessage, 0)
	for _, msgs := range imdb.messages {
		messages = append(messages, msgs...)
	}

	responses = make([]store.ResponseRecord, 0, len(imdb.responses))
	for _, r := range imdb.responses {
		responses = append(responses, r)
	}

	return messages, responses, nil
}

// Close closes the persistent storer, if any
func (imdb *InMemoryDB) Close() (err error) {
	if imdb.persistentStorer != nil {
		return imdb.persistentStorer.Close()
	}

	return nil
}
