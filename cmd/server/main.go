package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hirewire/mailengine/internal/address"
	"github.com/hirewire/mailengine/internal/api"
	"github.com/hirewire/mailengine/internal/config"
	"github.com/hirewire/mailengine/internal/mail"
	"github.com/hirewire/mailengine/internal/notify"
	"github.com/hirewire/mailengine/internal/store"
	"github.com/hirewire/mailengine/internal/transport"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	pool, err := store.NewConnection(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.CloseConnection(pool)

	log.Printf("Successfully connected to database")

	server := NewServer(cfg, store.NewPostgresStore(pool))

	addr := ":" + cfg.Port
	log.Printf("Mail engine starting on %s (environment: %s)", addr, cfg.Environment)

	if err := http.ListenAndServe(addr, server); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// NewServer creates and returns a new HTTP handler for the mail API server.
func NewServer(cfg *config.Config, pg *store.PostgresStore) http.Handler {
	classifier := address.NewClassifier(cfg.InternalDomain)
	smtpTransport := transport.NewSMTPTransport(cfg.GetSMTPAddress(), cfg.SMTPHost, cfg.SMTPUsername, cfg.SMTPPassword)
	hub := notify.NewHub(10)

	engine := mail.NewEngine(pg, pg, classifier, smtpTransport, hub, cfg.TransportTimeout)

	emailsHandler := api.NewEmailsHandler(engine)
	wsHandler := api.NewWebSocketHandler(pg, hub)

	mux := http.NewServeMux()

	mux.HandleFunc("/", handleRoot)
	mux.Handle("/metrics", promhttp.Handler())

	mux.Handle("/api/v1/emails/send", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		emailsHandler.Send(w, r)
	}))
	mux.Handle("/api/v1/emails/drafts", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		emailsHandler.SaveDraft(w, r)
	}))
	mux.Handle("/api/v1/emails", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		emailsHandler.GetEmails(w, r)
	}))
	// Handle /api/v1/emails/{id} and /api/v1/emails/{id}/flags patterns
	mux.Handle("/api/v1/emails/", http.HandlerFunc(emailsHandler.HandleEmail))
	mux.Handle("/api/v1/ws", http.HandlerFunc(wsHandler.Handle))

	return mux
}

func handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "HireWire mail API is running")
}
