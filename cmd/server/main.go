package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/inamate/facefinder/internal/auth"
	"github.com/inamate/facefinder/internal/collab"
	"github.com/inamate/facefinder/internal/config"
	"github.com/inamate/facefinder/internal/db"
	"github.com/inamate/facefinder/internal/document"
	"github.com/inamate/facefinder/internal/export"
	"github.com/inamate/facefinder/internal/library"
	mw "github.com/inamate/facefinder/internal/middleware"
	"github.com/inamate/facefinder/internal/sketch"
)

// The playground sketch is open to anonymous users and never saved.
const playgroundSketchID = "sketch_playground"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		slog.Error("migrate database", "error", err)
		os.Exit(1)
	}

	queries := db.New(pool)

	opts := []sketch.Option{sketch.WithLogger(logger)}
	if cfg.NestedFaces {
		opts = append(opts, sketch.WithNestedFaces())
	}

	authService := auth.NewService(queries, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	libraryService := library.NewService(queries, cfg.MaxSegments, opts...)
	libraryHandler := library.NewHandler(libraryService, cfg.BatchWorkers, authService)

	// Document loader for the collaboration hub
	docLoader := func(ctx context.Context, sketchID string) (*document.Sketch, error) {
		doc, err := libraryService.LoadDocument(ctx, sketchID)
		if sketchID == playgroundSketchID && errors.Is(err, library.ErrNotFound) {
			return document.NewSampleSketch(playgroundSketchID), nil
		}
		return doc, err
	}

	// Document saver for the collaboration hub
	docSaver := func(ctx context.Context, sketchID string, doc *document.Sketch) error {
		if sketchID == playgroundSketchID {
			return nil
		}
		return libraryService.SaveDocument(ctx, sketchID, doc)
	}

	hub := collab.NewHub(docLoader, docSaver, opts...)
	go hub.Run()

	exportHandler := export.NewHandler(libraryService, cfg.ExportSize, opts...)

	origins := mw.SplitOrigins(cfg.AllowedOrigins)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(origins))

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Stateless solving and export (public, used by the playground)
	r.HandleFunc("/faces", libraryHandler.Faces).Methods("POST", "OPTIONS")
	r.HandleFunc("/faces/batch", libraryHandler.FacesBatch).Methods("POST", "OPTIONS")
	r.HandleFunc("/export/{format}", exportHandler.Export).Methods("POST", "OPTIONS")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/sketches", libraryHandler.List).Methods("GET")
	api.HandleFunc("/sketches", libraryHandler.Create).Methods("POST")
	api.HandleFunc("/sketches/{sketchId}", libraryHandler.Get).Methods("GET")
	api.HandleFunc("/sketches/{sketchId}", libraryHandler.Delete).Methods("DELETE")
	api.HandleFunc("/sketches/{sketchId}/revisions", libraryHandler.SaveRevision).Methods("POST")
	api.HandleFunc("/sketches/{sketchId}/revisions/latest", libraryHandler.Latest).Methods("GET")
	api.HandleFunc("/sketches/{sketchId}/faces", libraryHandler.Solve).Methods("POST")
	api.HandleFunc("/sketches/{sketchId}/faces/latest", libraryHandler.LatestRun).Methods("GET")
	api.HandleFunc("/sketches/{sketchId}/share", libraryHandler.Share).Methods("POST")

	// WebSocket endpoint
	r.HandleFunc("/ws/sketch/{sketchId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, libraryService, originPatterns(origins))
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop hub first to save all dirty sketches
		slog.Info("saving open sketches...")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, lib *library.Service, patterns []string) {
	vars := mux.Vars(r)
	sketchID := vars["sketchId"]

	var userID string
	var displayName string

	if sketchID == playgroundSketchID {
		// Anonymous user for playground
		userID = "anon-" + uuid.New().String()[:8]
		displayName = "Anonymous"
	} else {
		// Browsers pass the token as a query parameter
		access, err := authSvc.JoinSketch(r, sketchID)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// Guests hold a sketch token; the owner who issued it still has to
		// own the sketch.
		if err := lib.CanEdit(r.Context(), sketchID, access.UserID); err != nil {
			switch {
			case errors.Is(err, library.ErrNotFound):
				http.Error(w, "sketch not found", http.StatusNotFound)
			case errors.Is(err, library.ErrForbidden):
				http.Error(w, "not the sketch owner", http.StatusForbidden)
			default:
				slog.Error("check sketch access", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		if access.Guest {
			userID = "guest-" + uuid.New().String()[:8]
			displayName = "Guest"
		} else {
			user, err := authSvc.GetUser(r.Context(), access.UserID)
			if err != nil {
				http.Error(w, "user not found", http.StatusInternalServerError)
				return
			}
			userID, displayName = user.ID, user.DisplayName
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: patterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := collab.NewClient(hub, conn, userID, displayName, sketchID, clientID)

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

// originPatterns converts allowed origins to the host patterns websocket
// accepts.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			patterns = append(patterns, o)
			continue
		}
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			continue
		}
		patterns = append(patterns, u.Host)
	}
	return patterns
}
