/*
Package dailyscot provides a personal slack bot that answers your daily for you.

During the day, every message the tracked user sends to the bot (in a direct message or on
the daily channel) is stored for that day and the user gets back a preview of the report.
When the daily-prompt bot posts on the channel, dailyscot replies in the prompt's thread
with the day's messages rendered as a bulleted list:

	• Fixed bug X
	• Reviewed PR #42

A day is answered at most once. Two scheduled actions run in the configured time location:
the daily flag is reset at midnight and, at 23:55, a reminder with the report is posted on
the channel if the day has messages but no answer.

Events come from an EventSource (see the ingress package for socket mode and webhook sources)
and are processed one at a time on a work queue shared with the scheduled actions.

Example code (see cmd/dailyscot for the complete setup):

	package main

	import (
		"github.com/alexandre-normand/dailyscot"
		"github.com/alexandre-normand/dailyscot/config"
		"github.com/alexandre-normand/dailyscot/ingress"
		"github.com/alexandre-normand/dailyscot/store/sqlitedb"
	)

	func main() {
		// TODO: Load and validate the viper config, create the slack client

		d, err := dailyscot.NewBot("dailyscot", v,
			dailyscot.OptionNotifier(dailyscot.NewNotifier(client, sLogger)),
			dailyscot.OptionBotInfoFinder(client)).
			WithStorerErr(sqlitedb.New("dailyscot", v.GetString(config.StoragePathKey))).
			Build()
		if err != nil {
			log.Fatal(err)
		}

		err = d.Run(context.Background(), ingress.NewSocketMode(socketmode.New(client), sLogger))
		if err != nil {
			log.Fatal(err)
		}
	}
*/
package dailyscot
