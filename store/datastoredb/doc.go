/*
Package datastoredb provides an implementation of github.com/alexandre-normand/dailyscot/store's ScanStorer
interface backed by the Google Cloud Datastore.

Requirements for the Google Cloud Datastore integration:
  - A valid project id with datastore mode enabled
  - Google Cloud Credentials (typically in the form of a json file with credentials from https://console.cloud.google.com/apis/credentials/serviceaccountkey)

Example code:

	import (
		"github.com/alexandre-normand/dailyscot/store/datastoredb"
		"google.golang.org/api/option"
	)

	func main() {
		// The first argument is this instance's namespace and maps to the entity kinds.
		// The second argument is the gcloud project id and the others are client options, most
		// commonly the path to a json credentials file
		storer, err := datastoredb.New("dailyscot", "youppi", option.WithCredentialsFile(*gcloudCredentialsFile))
		if err != nil {
			log.Fatalf("Opening datastore failed: %s", err.Error())
		}
		defer storer.Close()

		...
	}
*/
package datastoredb
