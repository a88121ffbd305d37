// Package main runs dailyscot, the personal daily report bot
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/alexandre-normand/dailyscot"
	"github.com/alexandre-normand/dailyscot/config"
	"github.com/alexandre-normand/dailyscot/ingress"
	"github.com/alexandre-normand/dailyscot/store"
	"github.com/alexandre-normand/dailyscot/store/datastoredb"
	"github.com/alexandre-normand/dailyscot/store/inmemorydb"
	"github.com/alexandre-normand/dailyscot/store/sqlitedb"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/api/option"
)

const (
	name             = "dailyscot"
	defaultLogPrefix = "dailyscot: "
	defaultLogFlag   = log.Lshortfile | log.LstdFlags
)

// version is set at build time with ldflags
var version = "dev"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string
	var envFile string
	var logFile string

	cmd := &cobra.Command{
		Use:   name,
		Short: "dailyscot answers your daily with what you told it during the day",
		Long: `dailyscot keeps the messages you send it (in a direct message or on the daily channel)
and replies with all of them, as a bulleted list, in the thread of the daily bot's prompt.

Configuration comes from the environment (SLACK_BOT_TOKEN, SLACK_APP_TOKEN, SLACK_CHANNEL_ID,
USER_ID, ...), optionally loaded from a .env file, and from an optional configuration file.`,
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadConfig(envFile, configFile, os.LookupEnv)
			if err != nil {
				return err
			}

			logOption, logger, closeLog, err := newLogOption(logFile)
			if err != nil {
				return err
			}
			defer closeLog()

			return run(cmd.Context(), v, logOption, logger)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "path to a configuration file (yaml, json or toml)")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "path to a .env file, ignored if missing")
	cmd.Flags().StringVar(&logFile, "log-file", "", "path to a file to append logs to instead of stdout")

	return cmd
}

// loadConfig loads the env file (if it exists), the config file (if set) and the environment
// over the defaults and validates the result
func loadConfig(envFile string, configFile string, lookupEnv func(string) (string, bool)) (v *viper.Viper, err error) {
	if envFile != "" {
		if err = godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to load env file [%s]", envFile)
		}
	}

	v = config.NewViperWithDefaults()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err = v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file [%s]", configFile)
		}
	}

	if err = config.BindEnv(v, lookupEnv); err != nil {
		return nil, err
	}

	if err = config.Validate(v); err != nil {
		return nil, err
	}

	return v, nil
}

// newLogOption returns the bot's logging option along with the logger used by everything else. With
// a logFile, both append to it
func newLogOption(logFile string) (o dailyscot.Option, logger *log.Logger, closeLog func(), err error) {
	if logFile == "" {
		logger = log.New(os.Stdout, defaultLogPrefix, defaultLogFlag)
		return dailyscot.OptionLog(logger), logger, func() {}, nil
	}

	path, err := homedir.Expand(logFile)
	if err != nil {
		return nil, nil, nil, errors.Wrapf(err, "invalid log file [%s]", logFile)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, nil, errors.Wrapf(err, "failed to open log file [%s]", logFile)
	}

	return dailyscot.OptionLogfile(f), log.New(f, defaultLogPrefix, defaultLogFlag), func() { closeQuietly(f) }, nil
}

func run(ctx context.Context, v *viper.Viper, logOption dailyscot.Option, logger *log.Logger) (err error) {
	sLogger := dailyscot.NewSLogger(logger, v.GetBool(config.DebugKey))
	meter := otel.Meter(name)

	client := slack.New(v.GetString(config.TokenKey),
		slack.OptionDebug(v.GetBool(config.DebugKey)),
		slack.OptionLog(logger),
		slack.OptionAppLevelToken(v.GetString(config.AppTokenKey)))

	auth, err := client.AuthTest()
	if err != nil {
		return errors.Wrap(err, "slack authentication failed, check the bot token")
	}
	sLogger.Printf("Authenticated as [%s] (user [%s], bot [%s]) on team [%s]", auth.User, auth.UserID, auth.BotID, auth.Team)

	poster, err := dailyscot.NewMessagePosterWithTelemetry(client, name, meter)
	if err != nil {
		return err
	}

	botInfoFinder, err := dailyscot.NewCachingBotInfoFinder(v, client, sLogger)
	if err != nil {
		return err
	}

	botInfoFinder, err = dailyscot.NewBotInfoFinderWithTelemetry(botInfoFinder, name, meter)
	if err != nil {
		return err
	}

	d, err := dailyscot.NewBot(name, v,
		logOption,
		dailyscot.OptionMeter(meter),
		dailyscot.OptionNotifier(dailyscot.NewNotifier(poster, sLogger)),
		dailyscot.OptionBotInfoFinder(botInfoFinder),
		dailyscot.OptionSelfIdentity(auth.UserID, auth.BotID)).
		WithStorerErr(newStorer(v, meter)).
		Build()
	if err != nil {
		return err
	}

	var source dailyscot.EventSource
	switch mode := v.GetString(config.IngressModeKey); mode {
	case config.WebhookMode:
		if source, err = ingress.NewWebhook(v, d, sLogger); err != nil {
			return err
		}
	default:
		source = ingress.NewSocketMode(socketmode.New(client, socketmode.OptionDebug(v.GetBool(config.DebugKey)), socketmode.OptionLog(logger)), sLogger)
	}

	return d.Run(ctx, source)
}

// newStorer opens the configured storage driver. Persistent drivers are fronted by an in-memory
// cache and every driver is instrumented
func newStorer(v *viper.Viper, meter metric.Meter) (s store.Storer, err error) {
	storagePath := v.GetString(config.StoragePathKey)

	var persistent store.ScanStorer
	switch driver := v.GetString(config.StorageDriverKey); driver {
	case config.MemoryDriver:
		return store.NewStorerWithTelemetry(inmemorydb.NewVolatile(), config.MemoryDriver, meter)
	case config.LevelDBDriver:
		persistent, err = store.NewLevelDB(name, storagePath)
	case config.SQLiteDriver:
		persistent, err = sqlitedb.New(name, storagePath)
	case config.DatastoreDriver:
		persistent, err = datastoredb.New(name, v.GetString(config.GCloudProjectIDKey), gcloudClientOptions(v)...)
	default:
		return nil, &config.Error{Msg: fmt.Sprintf("unsupported storage driver [%s]", driver)}
	}

	if err != nil {
		return nil, err
	}

	cached, err := inmemorydb.New(persistent)
	if err != nil {
		closeQuietly(persistent)
		return nil, err
	}

	return store.NewStorerWithTelemetry(cached, v.GetString(config.StorageDriverKey), meter)
}

// gcloudClientOptions returns the datastore client options. Without a credentials file, the
// client uses the application default credentials
func gcloudClientOptions(v *viper.Viper) (opts []option.ClientOption) {
	if credsFile := v.GetString(config.GCloudCredsFileKey); credsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credsFile))
	}

	return opts
}

func closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		log.Printf("Error closing [%T]: %v", c, err)
	}
}
