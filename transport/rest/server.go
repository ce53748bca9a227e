package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rocketscienceinc/caro-backend/internal/entity"
)

const shutdownTimeout = 5 * time.Second

type gameManager interface {
	CreateRoom(ctx context.Context, roomID string, selector entity.ProfileSelector) (entity.RoomState, bool, error)
	GetRoom(ctx context.Context, roomID string) (entity.RoomState, error)
	ListRooms(ctx context.Context) []entity.RoomSummary
	BoardProfiles() []entity.BoardProfile
	DefaultProfile() entity.BoardProfile
}

type statsReader interface {
	GetStats(ctx context.Context, accountID string) (entity.AccountStats, error)
}

// Server serves the read-mostly HTTP API next to the websocket endpoint.
type Server struct {
	logger  *slog.Logger
	manager gameManager
	stats   statsReader
}

func New(logger *slog.Logger, manager gameManager, stats statsReader) *Server {
	return &Server{
		logger:  logger.With("component", "rest"),
		manager: manager,
		stats:   stats,
	}
}

// Router - builds the chi router with every route of the API.
func (that *Server) Router() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(that.requestLogger)

	router.Get("/ping", that.pingHandler)

	router.Route("/api", func(r chi.Router) {
		r.Get("/board-types", that.listBoardTypes)

		r.Get("/rooms", that.listRooms)
		r.Post("/rooms", that.createRoom)
		r.Get("/rooms/{roomID}", that.getRoom)

		r.Get("/accounts/{accountID}/stats", that.getAccountStats)
	})

	return router
}

// Start - starts HTTP server and shuts it down when ctx is cancelled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		that.logger.Debug("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
