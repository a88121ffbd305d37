// Package config provides the configuration keys, defaults and loading helpers
// for a dailyscot instance
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	TokenKey            = "token"                         // Slack bot token (xoxb-...), string value. Required
	AppTokenKey         = "appToken"                      // Slack app-level token (xapp-...), string value. Required in socket mode
	SigningSecretKey    = "signingSecret"                 // Slack signing secret, string value. Required in webhook mode
	ChannelIDKey        = "channelId"                     // The channel where dailies are prompted and answered, string value. Required
	UserIDKey           = "userId"                        // The tracked user id, string value. Required
	DailyBotNameKey     = "dailyBotName"                  // Case-insensitive fragment of the daily-prompt bot's name, string value. Defaults to "Slackbot"
	IngressModeKey      = "ingress.mode"                  // How events are received, one of "socket" or "webhook". Defaults to "socket"
	ListenAddrKey       = "ingress.listenAddr"            // Listen address for webhook mode, string value. Defaults to ":3000"
	StorageDriverKey    = "storage.driver"                // One of "sqlite", "leveldb", "datastore" or "memory". Defaults to "sqlite"
	StoragePathKey      = "storage.path"                  // Directory holding the database files, string value. Defaults to "~/.dailyscot"
	GCloudProjectIDKey  = "storage.gcloudProjectId"       // Google Cloud project id of the datastore, string value. Required with the datastore driver
	GCloudCredsFileKey  = "storage.gcloudCredentialsFile" // Path to a gcloud service account credentials file, string value. Optional, the default credentials are used when empty
	TimeLocationKey     = "timeLocation"                  // Time location used for day boundaries and schedules. Defaults to "Local"
	ResetAtKey          = "schedule.resetAt"              // Time of day ("HH:MM") at which the daily flag is reset. Defaults to "00:00"
	MissedCheckAtKey    = "schedule.missedCheckAt"        // Time of day ("HH:MM") at which a missed daily triggers a reminder. Defaults to "23:55"
	BotInfoCacheSizeKey = "botInfoCacheSize"              // Number of bot identities to keep in cache, int value. 0 disables caching. Defaults to 32
	QueueSizeKey        = "queueSize"                     // Capacity of the event work queue, int value. Defaults to 64
	DebugKey            = "debug"                         // Debug mode, boolean value. Defaults to false
)

// Ingress modes and storage drivers
const (
	SocketMode  = "socket"
	WebhookMode = "webhook"

	SQLiteDriver    = "sqlite"
	LevelDBDriver   = "leveldb"
	DatastoreDriver = "datastore"
	MemoryDriver    = "memory"
)

const (
	defaultDailyBotName     = "Slackbot"
	defaultListenAddr       = ":3000"
	defaultStoragePath      = "~/.dailyscot"
	defaultTimeLocation     = "Local"
	defaultResetAt          = "00:00"
	defaultMissedCheckAt    = "23:55"
	defaultBotInfoCacheSize = 32
	defaultQueueSize        = 64

	webhookModeEnv = "WEBHOOK_MODE"
	portEnv        = "PORT"
)

// Environment variable names bound to configuration keys. These match the names
// used in the bot's .env file
var envBindings = map[string]string{
	TokenKey:           "SLACK_BOT_TOKEN",
	AppTokenKey:        "SLACK_APP_TOKEN",
	SigningSecretKey:   "SLACK_SIGNING_SECRET",
	ChannelIDKey:       "SLACK_CHANNEL_ID",
	UserIDKey:          "USER_ID",
	DailyBotNameKey:    "DAILY_BOT_NAME",
	IngressModeKey:     "INGRESS_MODE",
	StorageDriverKey:   "STORAGE_DRIVER",
	StoragePathKey:     "STORAGE_PATH",
	GCloudProjectIDKey: "GCLOUD_PROJECT_ID",
	GCloudCredsFileKey: "GCLOUD_CREDENTIALS_FILE",
	TimeLocationKey:    "TIME_LOCATION",
	DebugKey:           "DEBUG",
}

// Error is returned for any invalid or missing configuration
type Error struct {
	Msg string
}

func (e *Error) Error() string {
	return e.Msg
}

// NewViperWithDefaults creates a new viper instance with all the default values set
func NewViperWithDefaults() (v *viper.Viper) {
	return LayerConfigWithDefaults(viper.New())
}

// LayerConfigWithDefaults sets the default values on a viper instance without overriding values already set
func LayerConfigWithDefaults(v *viper.Viper) (lv *viper.Viper) {
	v.SetDefault(DailyBotNameKey, defaultDailyBotName)
	v.SetDefault(IngressModeKey, SocketMode)
	v.SetDefault(ListenAddrKey, defaultListenAddr)
	v.SetDefault(StorageDriverKey, SQLiteDriver)
	v.SetDefault(StoragePathKey, defaultStoragePath)
	v.SetDefault(TimeLocationKey, defaultTimeLocation)
	v.SetDefault(ResetAtKey, defaultResetAt)
	v.SetDefault(MissedCheckAtKey, defaultMissedCheckAt)
	v.SetDefault(BotInfoCacheSizeKey, defaultBotInfoCacheSize)
	v.SetDefault(QueueSizeKey, defaultQueueSize)
	v.SetDefault(DebugKey, false)

	return v
}

// BindEnv binds every configuration key to its environment variable. It also maps
// the WEBHOOK_MODE=true flag and a bare PORT value onto the ingress keys. lookupEnv
// is usually os.LookupEnv
func BindEnv(v *viper.Viper, lookupEnv func(string) (string, bool)) (err error) {
	for key, env := range envBindings {
		if err = v.BindEnv(key, env); err != nil {
			return errors.Wrapf(err, "failed to bind [%s] to env [%s]", key, env)
		}
	}

	if val, ok := lookupEnv(webhookModeEnv); ok && strings.EqualFold(strings.TrimSpace(val), "true") {
		v.Set(IngressModeKey, WebhookMode)
	}

	if port, ok := lookupEnv(portEnv); ok && port != "" {
		if !strings.Contains(port, ":") {
			port = ":" + port
		}
		v.Set(ListenAddrKey, port)
	}

	return nil
}

// Validate verifies that all keys required by the configured ingress mode and
// storage driver are set. The returned error names every missing key
func Validate(v *viper.Viper) (err error) {
	required := []string{TokenKey, ChannelIDKey, UserIDKey, DailyBotNameKey}

	mode := v.GetString(IngressModeKey)
	switch mode {
	case SocketMode:
		required = append(required, AppTokenKey)
	case WebhookMode:
		required = append(required, SigningSecretKey)
	default:
		return &Error{Msg: fmt.Sprintf("invalid %s [%s], should be one of [%s, %s]", IngressModeKey, mode, SocketMode, WebhookMode)}
	}

	switch driver := v.GetString(StorageDriverKey); driver {
	case SQLiteDriver, LevelDBDriver, MemoryDriver:
	case DatastoreDriver:
		required = append(required, GCloudProjectIDKey)
	default:
		return &Error{Msg: fmt.Sprintf("invalid %s [%s], should be one of [%s, %s, %s, %s]", StorageDriverKey, driver, SQLiteDriver, LevelDBDriver, DatastoreDriver, MemoryDriver)}
	}

	missing := make([]string, 0)
	for _, key := range required {
		if strings.TrimSpace(v.GetString(key)) == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return &Error{Msg: fmt.Sprintf("missing required configuration for %s mode: %s", mode, strings.Join(missing, ", "))}
	}

	for _, key := range []string{ResetAtKey, MissedCheckAtKey} {
		if _, err := time.Parse("15:04", v.GetString(key)); err != nil {
			return &Error{Msg: fmt.Sprintf("invalid %s [%s], should be formatted as HH:MM", key, v.GetString(key))}
		}
	}

	return nil
}

// GetTimeLocation returns the time location configured
func GetTimeLocation(v *viper.Viper) (timeLoc *time.Location, err error) {
	timeLoc, err = time.LoadLocation(v.GetString(TimeLocationKey))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load time location [%s]", v.GetString(TimeLocationKey))
	}

	return timeLoc, nil
}
