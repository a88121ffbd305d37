package ingress

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/alexandre-normand/dailyscot"
	"github.com/alexandre-normand/dailyscot/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/spf13/viper"
)

const (
	maxEventBodyBytes     = 1 << 20
	shutdownTimeout       = 10 * time.Second
	deliveredEventIDsSize = 1024
	eventsPath            = "/events"
	retryNumHeader        = "X-Slack-Retry-Num"
	configured            = "configured"
	notConfigured         = "not configured"
)

// StatusReporter reports today's state for the status endpoint. *dailyscot.Dailyscot implements it
type StatusReporter interface {
	Status() dailyscot.Status
}

// Webhook receives events api requests over http. It also serves the health, status and debug endpoints
type Webhook struct {
	config        *viper.Viper
	addr          string
	signingSecret string
	mode          string
	status        StatusReporter
	logger        dailyscot.SLogger
	now           func() time.Time

	// Ids of the events already dispatched. Slack redelivers an event when the ack is late
	delivered *lru.Cache
}

// NewWebhook returns a Webhook source listening on config.ListenAddrKey. Requests are verified with
// config.SigningSecretKey
func NewWebhook(v *viper.Viper, status StatusReporter, logger dailyscot.SLogger) (w *Webhook, err error) {
	delivered, err := lru.New(deliveredEventIDsSize)
	if err != nil {
		return nil, err
	}

	return &Webhook{
		config:        v,
		addr:          v.GetString(config.ListenAddrKey),
		signingSecret: v.GetString(config.SigningSecretKey),
		mode:          v.GetString(config.IngressModeKey),
		status:        status,
		logger:        logger,
		now:           time.Now,
		delivered:     delivered,
	}, nil
}

// Router returns the http routes delivering message events to handler
func (wh *Webhook) Router(handler dailyscot.EventHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Post(eventsPath, func(w http.ResponseWriter, r *http.Request) {
		wh.serveEvents(w, r, handler)
	})
	r.Get("/health", wh.serveHealth)
	r.Get("/status", wh.serveStatus)
	r.Get("/debug", wh.serveDebug)

	return r
}

// Run serves the webhook until ctx is cancelled, then shuts the server down gracefully
func (wh *Webhook) Run(ctx context.Context, handler dailyscot.EventHandler) (err error) {
	srv := &http.Server{
		Addr:              wh.addr,
		Handler:           wh.Router(handler),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	serveErrs := make(chan error, 1)
	go func() {
		wh.logger.Printf("Webhook listening on [%s]", wh.addr)
		serveErrs <- srv.ListenAndServe()
	}()

	select {
	case err = <-serveErrs:
		return errors.Wrapf(err, "webhook server on [%s] failed", wh.addr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "webhook server shutdown failed")
	}

	wh.logger.Printf("Webhook stopped")

	return nil
}

func (wh *Webhook) serveEvents(w http.ResponseWriter, r *http.Request, handler dailyscot.EventHandler) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	if err = wh.verify(r.Header, body); err != nil {
		wh.logger.Printf("Rejecting event request: %v", err)
		respondError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	ev, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		wh.logger.Printf("Rejecting unparseable event request: %v", err)
		respondError(w, http.StatusBadRequest, "invalid event")
		return
	}

	if ev.Type == slackevents.URLVerification {
		challenge, ok := ev.Data.(*slackevents.EventsAPIURLVerificationEvent)
		if !ok {
			respondError(w, http.StatusBadRequest, "invalid challenge")
			return
		}

		wh.logger.Printf("Answering url verification challenge")
		respondJSON(w, http.StatusOK, map[string]string{"challenge": challenge.Challenge})
		return
	}

	if cb, ok := ev.Data.(*slackevents.EventsAPICallbackEvent); ok && cb.EventID != "" {
		if seen, _ := wh.delivered.ContainsOrAdd(cb.EventID, true); seen {
			wh.logger.Printf("Skipping redelivered event [%s] (retry [%s])", cb.EventID, r.Header.Get(retryNumHeader))
			respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}
	}

	dispatch(ev, handler, wh.logger)
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (wh *Webhook) verify(header http.Header, body []byte) (err error) {
	sv, err := slack.NewSecretsVerifier(header, wh.signingSecret)
	if err != nil {
		return err
	}

	if _, err = sv.Write(body); err != nil {
		return err
	}

	return sv.Ensure()
}

type health struct {
	Status    string `json:"status"`
	Mode      string `json:"mode"`
	Timestamp string `json:"timestamp"`
}

func (wh *Webhook) serveHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, health{Status: "ok", Mode: wh.mode, Timestamp: wh.now().Format(time.RFC3339)})
}

func (wh *Webhook) serveStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, wh.status.Status())
}

// debugInfo reports configuration diagnostics. Secrets are only reported as configured or not
type debugInfo struct {
	BotToken      string `json:"botToken"`
	SigningSecret string `json:"signingSecret"`
	ChannelID     string `json:"channelId"`
	UserID        string `json:"userId"`
	DailyBotName  string `json:"dailyBotName"`
	Mode          string `json:"mode"`
	ListenAddr    string `json:"listenAddr"`
	EventsPath    string `json:"eventsPath"`
}

func (wh *Webhook) serveDebug(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, debugInfo{
		BotToken:      configuredOrNot(wh.config.GetString(config.TokenKey)),
		SigningSecret: configuredOrNot(wh.signingSecret),
		ChannelID:     wh.config.GetString(config.ChannelIDKey),
		UserID:        wh.config.GetString(config.UserIDKey),
		DailyBotName:  wh.config.GetString(config.DailyBotNameKey),
		Mode:          wh.mode,
		ListenAddr:    wh.addr,
		EventsPath:    eventsPath,
	})
}

func configuredOrNot(secret string) string {
	if secret == "" {
		return notConfigured
	}

	return configured
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
