package datastoredb

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/datastore"
	"github.com/alexandre-normand/dailyscot/store"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

const (
	messageKindSuffix  = "Message"
	responseKindSuffix = "Response"
)

// datastorer is implemented by any value that implements all of its methods. It is meant
// to allow easier testing decoupled from an actual datastore to interact with and
// the methods defined are methods implemented by the datastore.Client that this package
// uses
type datastorer interface {
	io.Closer
	Get(c context.Context, k *datastore.Key, dest interface{}) (err error)
	GetAll(c context.Context, query *datastore.Query, dest interface{}) (keys []*datastore.Key, err error)
	Put(c context.Context, k *datastore.Key, v interface{}) (key *datastore.Key, err error)
}

// messageEntity is a daily message as stored in the datastore
type messageEntity struct {
	Date      string
	Text      string `datastore:",noindex"`
	Sequence  int64
	CreatedAt time.Time `datastore:",noindex"`
}

// responseEntity is a response record as stored in the datastore. Its key name is the date
type responseEntity struct {
	Sent      bool      `datastore:",noindex"`
	UpdatedAt time.Time `datastore:",noindex"`
}

// DatastoreDB implements store.ScanStorer on the Google Cloud Datastore. The given name maps to
// the entity kinds (<name>Message and <name>Response) to isolate data between instances.
//
// Sequences come from a counter seeded with the highest stored sequence when opening, so a
// kind must only have a single writing process
type DatastoreDB struct {
	datastorer
	messageKind  string
	responseKind string

	mu      sync.Mutex
	lastSeq int64
}

// New returns a new instance of DatastoreDB for the given name. This function also requires a
// gcloudProjectID and usually an option to provide gcloud client credentials. When the
// DATASTORE_EMULATOR_HOST environment variable is set, the client connects to that emulator
func New(name string, gcloudProjectID string, gcloudClientOpts ...option.ClientOption) (dsdb *DatastoreDB, err error) {
	client, err := datastore.NewClient(context.Background(), gcloudProjectID, gcloudClientOpts...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create datastore client for project [%s]", gcloudProjectID)
	}

	return newWithDatastorer(name, client)
}

// newWithDatastorer returns a new DatastoreDB on the datastorer. The highest stored sequence is
// loaded, which also validates connectivity and credentials
func newWithDatastorer(name string, ds datastorer) (dsdb *DatastoreDB, err error) {
	dsdb = &DatastoreDB{datastorer: ds, messageKind: name + messageKindSuffix, responseKind: name + responseKindSuffix}

	var last []messageEntity
	if _, err = ds.GetAll(context.Background(), datastore.NewQuery(dsdb.messageKind).Order("-Sequence").Limit(1), &last); err != nil {
		ds.Close()
		return nil, errors.Wrapf(err, "failed to load last sequence of [%s]", dsdb.messageKind)
	}

	if len(last) > 0 {
		dsdb.lastSeq = last[0].Sequence
	}

	return dsdb, nil
}

func (dsdb *DatastoreDB) messageKey(date string, seq int64) *datastore.Key {
	return datastore.NameKey(dsdb.messageKind, fmt.Sprintf("%s/%020d", date, seq), nil)
}

func (dsdb *DatastoreDB) responseKey(date string) *datastore.Key {
	return datastore.NameKey(dsdb.responseKind, date, nil)
}

// AppendMessage stores the message with the next sequence
func (dsdb *DatastoreDB) AppendMessage(date string, text string, createdAt time.Time) (m store.DailyMessage, err error) {
	dsdb.mu.Lock()
	defer dsdb.mu.Unlock()

	seq := dsdb.lastSeq + 1
	e := messageEntity{Date: date, Text: text, Sequence: seq, CreatedAt: createdAt}
	if _, err = dsdb.Put(context.Background(), dsdb.messageKey(date, seq), &e); err != nil {
		return m, errors.Wrapf(err, "failed to append message for [%s]", date)
	}

	dsdb.lastSeq = seq

	return e.toDailyMessage(), nil
}

// ListMessages returns the messages of the date ordered by sequence
func (dsdb *DatastoreDB) ListMessages(date string) (messages []store.DailyMessage, err error) {
	var entities []messageEntity

	// Sorting happens here rather than in the query so that no composite index is needed
	if _, err = dsdb.GetAll(context.Background(), datastore.NewQuery(dsdb.messageKind).FilterField("Date", "=", date), &entities); err != nil {
		return nil, errors.Wrapf(err, "failed to list messages for [%s]", date)
	}

	return toDailyMessages(entities), nil
}

// UpsertResponse creates or replaces the response record of the date
func (dsdb *DatastoreDB) UpsertResponse(date string, sent bool, updatedAt time.Time) (err error) {
	if _, err = dsdb.Put(context.Background(), dsdb.responseKey(date), &responseEntity{Sent: sent, UpdatedAt: updatedAt}); err != nil {
		return errors.Wrapf(err, "failed to record response for [%s]", date)
	}

	return nil
}

// GetResponse returns the response record of the date or store.ErrNotFound
func (dsdb *DatastoreDB) GetResponse(date string) (r store.ResponseRecord, err error) {
	var e responseEntity
	if err = dsdb.Get(context.Background(), dsdb.responseKey(date), &e); err != nil {
		if err == datastore.ErrNoSuchEntity {
			return r, store.ErrNotFound
		}

		return r, errors.Wrapf(err, "failed to get response for [%s]", date)
	}

	return store.ResponseRecord{Date: date, Sent: e.Sent, UpdatedAt: e.UpdatedAt}, nil
}

// Scan returns all messages (ordered by sequence) and response records
func (dsdb *DatastoreDB) Scan() (messages []store.DailyMessage, responses []store.ResponseRecord, err error) {
	ctx := context.Background()

	var msgEntities []messageEntity
	if _, err = dsdb.GetAll(ctx, datastore.NewQuery(dsdb.messageKind), &msgEntities); err != nil {
		return nil, nil, errors.Wrapf(err, "failed to scan [%s]", dsdb.messageKind)
	}

	var respEntities []responseEntity
	keys, err := dsdb.GetAll(ctx, datastore.NewQuery(dsdb.responseKind), &respEntities)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to scan [%s]", dsdb.responseKind)
	}

	responses = make([]store.ResponseRecord, 0, len(keys))
	for i, k := range keys {
		responses = append(responses, store.ResponseRecord{Date: k.Name, Sent: respEntities[i].Sent, UpdatedAt: respEntities[i].UpdatedAt})
	}

	return toDailyMessages(msgEntities), responses, nil
}

// Close closes the underlying datastore client
func (dsdb *DatastoreDB) Close() (err error) {
	return dsdb.datastorer.Close()
}

func (e messageEntity) toDailyMessage() store.DailyMessage {
	return store.DailyMessage{Date: e.Date, Text: e.Text, Sequence: e.Sequence, CreatedAt: e.CreatedAt}
}

func toDailyMessages(entities []messageEntity) (messages []store.DailyMessage) {
	sort.Slice(entities, func(i, j int) bool { return entities[i].Sequence < entities[j].Sequence })

	messages = make([]store.DailyMessage, 0, len(entities))
	for _, e := range entities {
		messages = append(messages, e.toDailyMessage())
	}

	return messages
}
