// Package sqlitedb provides an implementation of github.com/alexandre-normand/dailyscot/store's Storer
// interface backed by a sqlite database file (pure go driver, no cgo required).
//
// Messages are kept in the daily_messages table with an autoincrement id giving the insertion
// sequence. Response records are kept in daily_responses keyed by date.
package sqlitedb

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/alexandre-normand/dailyscot/store"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS daily_messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	date TEXT NOT NULL,
	message TEXT NOT NULL,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_daily_messages_date ON daily_messages(date, id);

CREATE TABLE IF NOT EXISTS daily_responses (
	date TEXT PRIMARY KEY,
	response_sent INTEGER NOT NULL,
	timestamp INTEGER NOT NULL
);
`

// SQLiteDB implements store.Storer on a sqlite database
type SQLiteDB struct {
	Path string
	db   *sql.DB
}

// New opens (or creates) the sqlite database named name.db under storagePath and
// initializes its schema
func New(name string, storagePath string) (sdb *SQLiteDB, err error) {
	path, err := homedir.Expand(storagePath)
	if err != nil {
		return nil, err
	}

	if err = os.MkdirAll(path, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create storage directory [%s]", path)
	}

	fullPath := filepath.Join(path, name+".db")
	db, err := sql.Open("sqlite", fullPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sqlite database [%s]", fullPath)
	}

	// A single connection serializes writers and avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to open sqlite database [%s]", fullPath)
	}

	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}

	return &SQLiteDB{Path: fullPath, db: db}, nil
}

// Close closes the database
func (sdb *SQLiteDB) Close() (err error) {
	return sdb.db.Close()
}

// AppendMessage inserts the message. Its sequence is the row id
func (sdb *SQLiteDB) AppendMessage(date string, text string, createdAt time.Time) (m store.DailyMessage, err error) {
	res, err := sdb.db.Exec(`INSERT INTO daily_messages (date, message, timestamp) VALUES (?, ?, ?)`, date, text, createdAt.UnixNano())
	if err != nil {
		return m, errors.Wrapf(err, "failed to append message for [%s]", date)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return m, errors.Wrap(err, "failed to get message id")
	}

	return store.DailyMessage{Date: date, Text: text, Sequence: id, CreatedAt: createdAt}, nil
}

// ListMessages returns the messages of the date ordered by id
func (sdb *SQLiteDB) ListMessages(date string) (messages []store.DailyMessage, err error) {
	rows, err := sdb.db.Query(`SELECT id, date, message, timestamp FROM daily_messages WHERE date = ? ORDER BY id`, date)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list messages for [%s]", date)
	}

	return scanMessages(rows)
}

// UpsertResponse creates or replaces the response record of the date
func (sdb *SQLiteDB) UpsertResponse(date string, sent bool, updatedAt time.Time) (err error) {
	_, err = sdb.db.Exec(`INSERT INTO daily_responses (date, response_sent, timestamp) VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET response_sent = excluded.response_sent, timestamp = excluded.timestamp`,
		date, sent, updatedAt.UnixNano())
	if err != nil {
		return errors.Wrapf(err, "failed to upsert response for [%s]", date)
	}

	return nil
}

// GetResponse returns the response record of the date or store.ErrNotFound
func (sdb *SQLiteDB) GetResponse(date string) (r store.ResponseRecord, err error) {
	var ts int64
	err = sdb.db.QueryRow(`SELECT date, response_sent, timestamp FROM daily_responses WHERE date = ?`, date).Scan(&r.Date, &r.Sent, &ts)
	if err == sql.ErrNoRows {
		return store.ResponseRecord{}, store.ErrNotFound
	} else if err != nil {
		return store.ResponseRecord{}, errors.Wrapf(err, "failed to get response for [%s]", date)
	}

	r.UpdatedAt = time.Unix(0, ts)

	return r, nil
}

// Scan returns every message and response record
func (sdb *SQLiteDB) Scan() (messages []store.DailyMessage, responses []store.ResponseRecord, err error) {
	rows, err := sdb.db.Query(`SELECT id, date, message, timestamp FROM daily_messages ORDER BY id`)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to scan messages")
	}

	messages, err = scanMessages(rows)
	if err != nil {
		return nil, nil, err
	}

	rrows, err := sdb.db.Query(`SELECT date, response_sent, timestamp FROM daily_responses ORDER BY date`)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to scan responses")
	}
	defer rrows.Close()

	responses = make([]store.ResponseRecord, 0)
	for rrows.Next() {
		var r store.ResponseRecord
		var ts int64
		if err = rrows.Scan(&r.Date, &r.Sent, &ts); err != nil {
			return nil, nil, errors.Wrap(err, "failed to read response row")
		}
		r.UpdatedAt = time.Unix(0, ts)
		responses = append(responses, r)
	}

	if err = rrows.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "failed to scan responses")
	}

	return messages, responses, nil
}

func scanMessages(rows *sql.Rows) (messages []store.DailyMessage, err error) {
	defer rows.Close()

	messages = make([]store.DailyMessage, 0)
	for rows.Next() {
		var m store.DailyMessage
		var ts int64
		if err = rows.Scan(&m.Sequence, &m.Date, &m.Text, &ts); err != nil {
			return nil, errors.Wrap(err, "failed to read message row")
		}
		m.CreatedAt = time.Unix(0, ts)
		messages = append(messages, m)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read messages")
	}

	return messages, nil
}
