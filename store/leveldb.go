package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	leveldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const (
	messagePrefix  = "msg:"
	responsePrefix = "resp:"
	sequenceKey    = "seq"
)

// LevelDB holds a datastore name and its leveldb instance
type LevelDB struct {
	Name     string
	database *leveldb.DB

	// Guards the sequence counter
	mu      sync.Mutex
	lastSeq int64
}

type levelDBMessage struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type levelDBResponse struct {
	Sent      bool      `json:"sent"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewLevelDB instantiates and opens a new LevelDB instance backed by a leveldb database. If the
// leveldb database doesn't exist, one is created
func NewLevelDB(name string, storagePath string) (ldb *LevelDB, err error) {
	// Expand '~' as the full home directory path if appropriate
	path, err := homedir.Expand(storagePath)
	if err != nil {
		return nil, err
	}

	fullPath := filepath.Join(path, name)
	db, err := leveldb.OpenFile(fullPath, nil)

	if _, ok := err.(*leveldberrors.ErrCorrupted); ok {
		return nil, errors.Wrap(err, fmt.Sprintf("leveldb corrupted. Consider deleting [%s] and restarting if you don't mind losing data", fullPath))
	} else if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("failed to open file with path [%s]", fullPath))
	}

	ldb = &LevelDB{Name: name, database: db}

	seq, err := db.Get([]byte(sequenceKey), nil)
	if err != nil && err != leveldb.ErrNotFound {
		db.Close()
		return nil, errors.Wrap(err, "failed to read message sequence")
	}

	if err == nil {
		ldb.lastSeq, err = strconv.ParseInt(string(seq), 10, 64)
		if err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "invalid message sequence [%s]", seq)
		}
	}

	return ldb, nil
}

// Close closes the LevelDB
func (ldb *LevelDB) Close() (err error) {
	return ldb.database.Close()
}

func messageKey(date string, seq int64) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", messagePrefix, date, seq))
}

func responseKey(date string) []byte {
	return []byte(responsePrefix + date)
}

// AppendMessage stores the message and the incremented sequence in a single batch
func (ldb *LevelDB) AppendMessage(date string, text string, createdAt time.Time) (m DailyMessage, err error) {
	ldb.mu.Lock()
	defer ldb.mu.Unlock()

	seq := ldb.lastSeq + 1
	val, err := json.Marshal(levelDBMessage{Text: text, CreatedAt: createdAt})
	if err != nil {
		return m, errors.Wrap(err, "failed to encode message")
	}

	b := new(leveldb.Batch)
	b.Put(messageKey(date, seq), val)
	b.Put([]byte(sequenceKey), []byte(strconv.FormatInt(seq, 10)))

	if err = ldb.database.Write(b, nil); err != nil {
		return m, errors.Wrapf(err, "failed to append message for [%s]", date)
	}

	ldb.lastSeq = seq

	return DailyMessage{Date: date, Text: text, Sequence: seq, CreatedAt: createdAt}, nil
}

// ListMessages returns the messages of the date. Keys embed the zero-padded sequence so
// iteration order is insertion order
func (ldb *LevelDB) ListMessages(date string) (messages []DailyMessage, err error) {
	messages = make([]DailyMessage, 0)

	iter := ldb.database.NewIterator(util.BytesPrefix([]byte(messagePrefix+date+":")), nil)
	for iter.Next() {
		m, err := decodeMessage(iter.Key(), iter.Value())
		if err != nil {
			iter.Release()
			return nil, err
		}

		messages = append(messages, m)
	}

	iter.Release()
	if err = iter.Error(); err != nil {
		return nil, errors.Wrapf(err, "failed to list messages for [%s]", date)
	}

	return messages, nil
}

// UpsertResponse adds or replaces the response record for the date
func (ldb *LevelDB) UpsertResponse(date string, sent bool, updatedAt time.Time) (err error) {
	val, err := json.Marshal(levelDBResponse{Sent: sent, UpdatedAt: updatedAt})
	if err != nil {
		return errors.Wrap(err, "failed to encode response record")
	}

	if err = ldb.database.Put(responseKey(date), val, nil); err != nil {
		return errors.Wrapf(err, "failed to upsert response for [%s]", date)
	}

	return nil
}

// GetResponse returns the response record for the date or ErrNotFound
func (ldb *LevelDB) GetResponse(date string) (r ResponseRecord, err error) {
	val, err := ldb.database.Get(responseKey(date), nil)
	if err == leveldb.ErrNotFound {
		return r, ErrNotFound
	} else if err != nil {
		return r, errors.Wrapf(err, "failed to get response for [%s]", date)
	}

	return decodeResponse(date, val)
}

// Scan returns the complete set of messages and response records from the database
func (ldb *LevelDB) Scan() (messages []DailyMessage, responses []ResponseRecord, err error) {
	messages = make([]DailyMessage, 0)
	responses = make([]ResponseRecord, 0)

	iter := ldb.database.NewIterator(nil, nil)
	defer iter.Release()

	for iter.Next() {
		key := string(iter.Key())

		switch {
		case strings.HasPrefix(key, messagePrefix):
			m, err := decodeMessage(iter.Key(), iter.Value())
			if err != nil {
				return nil, nil, err
			}
			messages = append(messages, m)
		case strings.HasPrefix(key, responsePrefix):
			r, err := decodeResponse(strings.TrimPrefix(key, responsePrefix), iter.Value())
			if err != nil {
				return nil, nil, err
			}
			responses = append(responses, r)
		}
	}

	if err = iter.Error(); err != nil {
		return nil, nil, errors.Wrap(err, "failed to scan")
	}

	return messages, responses, nil
}

func decodeMessage(key []byte, val []byte) (m DailyMessage, err error) {
	// msg:<date>:<seq>
	parts := strings.Split(strings.TrimPrefix(string(key), messagePrefix), ":")
	if len(parts) != 2 {
		return m, fmt.Errorf("invalid message key [%s]", key)
	}

	seq, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return m, errors.Wrapf(err, "invalid sequence in key [%s]", key)
	}

	var lm levelDBMessage
	if err = json.Unmarshal(val, &lm); err != nil {
		return m, errors.Wrapf(err, "failed to decode message [%s]", key)
	}

	return DailyMessage{Date: parts[0], Text: lm.Text, Sequence: seq, CreatedAt: lm.CreatedAt}, nil
}

func decodeResponse(date string, val []byte) (r ResponseRecord, err error) {
	var lr levelDBResponse
	if err = json.Unmarshal(val, &lr); err != nil {
		return r, errors.Wrapf(err, "failed to decode response for [%s]", date)
	}

	return ResponseRecord{Date: date, Sent: lr.Sent, UpdatedAt: lr.UpdatedAt}, nil
}
