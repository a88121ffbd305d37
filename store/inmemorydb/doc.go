/*
Package inmemorydb provides an implementation of github.com/alexandre-normand/dailyscot/store's Storer interface
as an in-memory data store, optionally relying on a wrapping ScanStorer for actual persistence.

The main use-case for the inmemorydb is to shield the persistent storer from reads: the status endpoint
and every daily prompt read today's messages and response record. Writes go through to the persistent
storer first and are only kept in memory once they succeed.

A daily bot only accumulates a handful of messages a day so keeping everything in memory is cheap.
Use NewVolatile for a store without persistence (tests or ephemeral runs).

Example code:

	import (
		"github.com/alexandre-normand/dailyscot/store/inmemorydb"
		"github.com/alexandre-normand/dailyscot/store/sqlitedb"
	)

	func main() {
		// Create your persistent storer first
		persistentStorer, err := sqlitedb.New("messages", "~/.dailyscot")
		if err != nil {
			log.Fatalf("Opening db failed: %s", err.Error())
		}

		// Create the inmemorydb
		storer, err := inmemorydb.New(persistentStorer)
		if err != nil {
			log.Fatalf("Opening creating in-memory db wrapper: %s", err.Error())
		}
		defer storer.Close()

		...
	}
*/
package inmemorydb
