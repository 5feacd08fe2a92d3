package canvasnote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Router assembles the full HTTP surface. Exposed separately from Run so
// tests can mount it on an httptest server.
func (a *App) Router() *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.Use(a.csrfMiddleware)

	api.HandleFunc("/csrf/", a.handleCSRF).Methods("GET")
	api.HandleFunc("/health", a.handleHealth).Methods("GET")

	api.HandleFunc("/notes/", a.handleListNotes).Methods("GET")
	api.HandleFunc("/notes/", a.handleCreateNote).Methods("POST")
	api.HandleFunc("/notes/{id}/", a.handleGetNote).Methods("GET")
	api.HandleFunc("/notes/{id}/", a.handleUpdateNote).Methods("PATCH")
	api.HandleFunc("/notes/{id}/", a.handleDeleteNote).Methods("DELETE")
	api.HandleFunc("/notes/{id}/export-pdf/", a.handleExportPDF).Methods("GET")

	api.HandleFunc("/categories/", a.handleListCategories).Methods("GET")
	api.HandleFunc("/categories/", a.handleCreateCategory).Methods("POST")

	api.HandleFunc("/templates/", a.handleListTemplates).Methods("GET")
	api.HandleFunc("/templates/", a.handleCreateTemplate).Methods("POST")
	api.HandleFunc("/templates/{id}/", a.handleGetTemplate).Methods("GET")

	api.HandleFunc("/upload-image/", a.handleUploadImage).Methods("POST")

	// Uploaded media is served straight from disk.
	mediaPrefix := a.config.MediaBaseURL
	if mediaPrefix == "" {
		mediaPrefix = "/media"
	}
	router.PathPrefix(mediaPrefix + "/").Handler(
		http.StripPrefix(mediaPrefix+"/", http.FileServer(http.Dir(a.config.MediaDir))))

	router.HandleFunc("/health", a.handleHealth).Methods("GET")

	return router
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the server fails. Shutdown drains in-flight requests for up to five
// seconds.
func (a *App) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%s", a.config.ServerPort)
	a.log.Info().Str("addr", addr).Msg("starting canvasnote server")

	server := &http.Server{
		Addr:              addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

// Migrate applies the schema to the configured store.
func (a *App) Migrate(ctx context.Context) error {
	a.log.Info().Msg("running schema migration")
	return a.store.Migrate(ctx)
}
