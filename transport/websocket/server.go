package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/caro-backend/internal/entity"
	"github.com/rocketscienceinc/caro-backend/internal/pkg"
)

const shutdownTimeout = 5 * time.Second

type gameManager interface {
	CreateRoom(ctx context.Context, roomID string, selector entity.ProfileSelector) (entity.RoomState, bool, error)
	JoinRoom(ctx context.Context, roomID string, player entity.Player, selector entity.ProfileSelector) (entity.RoomState, error)
	MakeMove(ctx context.Context, roomID string, move entity.Move) (entity.RoomState, error)
	ResetRoom(ctx context.Context, roomID string) (entity.RoomState, error)
	LeaveRoom(ctx context.Context, roomID, playerID string) (entity.LeaveResult, error)
	ListRooms(ctx context.Context) []entity.RoomSummary

	BindSession(sessionID, roomID, playerID string)
	HandleDisconnect(ctx context.Context, sessionID string) error
}

type handlerFunc func(ctx context.Context, c *client, message *Message) error

// Server accepts websocket connections, routes their actions to the game
// manager and fans room events out to the connections subscribed to a room.
type Server struct {
	logger   *slog.Logger
	manager  gameManager
	upgrader websocket.Upgrader

	handlers map[string]handlerFunc

	connectionsMutex sync.RWMutex
	connections      map[string]*client            // sessionID → client
	subscribers      map[string]map[string]*client // roomID → sessionID → client
}

func New(logger *slog.Logger, manager gameManager) *Server {
	server := &Server{
		logger:  logger.With("component", "websocket"),
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},

		handlers:    make(map[string]handlerFunc),
		connections: make(map[string]*client),
		subscribers: make(map[string]map[string]*client),
	}

	server.handlers[actionConnect] = server.handleConnect
	server.handlers[actionCreateRoom] = server.handleCreateRoom
	server.handlers[actionJoinRoom] = server.handleJoinRoom
	server.handlers[actionMove] = server.handleMove
	server.handlers[actionReset] = server.handleReset
	server.handlers[actionLeave] = server.handleLeave
	server.handlers[actionListRooms] = server.handleListRooms

	return server
}

// Handler - returns the http handler serving /ws.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveWebSocket(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server and shuts it down when ctx is cancelled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
		that.closeAll()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveWebSocket - upgrades the connection and runs its pumps.
func (that *Server) serveWebSocket(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveWebSocket")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := newClient(pkg.GenerateNewSessionID(), conn)
	that.register(c)

	log.Info("WebSocket connection established", "session_id", c.sessionID)

	go c.writePump()
	that.readPump(ctx, c)
}

// readPump - processes messages from the client until the connection drops.
func (that *Server) readPump(ctx context.Context, c *client) {
	log := that.logger.With("method", "readPump", "session_id", c.sessionID)

	defer that.unregister(ctx, c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("connection closed unexpectedly", "error", err)
			}
			return
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Debug("failed to unmarshal message", "error", err)
			that.sendError(c, actionError, "malformed message")
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Debug("unknown action", "action", message.Action)
			that.sendError(c, message.Action, "unknown action")
			continue
		}

		if err = handler(ctx, c, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

func (that *Server) register(c *client) {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	that.connections[c.sessionID] = c
}

// unregister - drops the connection and runs the disconnect path for its seat.
func (that *Server) unregister(ctx context.Context, c *client) {
	log := that.logger.With("method", "unregister", "session_id", c.sessionID)

	that.connectionsMutex.Lock()
	delete(that.connections, c.sessionID)
	that.unsubscribeLocked(c)
	that.connectionsMutex.Unlock()

	c.close()

	if err := that.manager.HandleDisconnect(context.WithoutCancel(ctx), c.sessionID); err != nil {
		log.Error("failed to handle disconnect", "error", err)
	}

	log.Info("WebSocket connection closed")
}

// subscribe - moves the client to the room's topic.
func (that *Server) subscribe(c *client, roomID string) {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	that.unsubscribeLocked(c)

	if that.subscribers[roomID] == nil {
		that.subscribers[roomID] = make(map[string]*client)
	}
	that.subscribers[roomID][c.sessionID] = c
	c.SetRoomID(roomID)
}

func (that *Server) unsubscribe(c *client) {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	that.unsubscribeLocked(c)
}

func (that *Server) unsubscribeLocked(c *client) {
	roomID := c.RoomID()
	if roomID == "" {
		return
	}

	if set, ok := that.subscribers[roomID]; ok {
		delete(set, c.sessionID)
		if len(set) == 0 {
			delete(that.subscribers, roomID)
		}
	}
	c.SetRoomID("")
}

// Publish - delivers a room event to every connection subscribed to the room.
func (that *Server) Publish(_ context.Context, event entity.RoomEvent) error {
	frame, err := encode(event.Type, event)
	if err != nil {
		return err
	}

	that.connectionsMutex.RLock()
	targets := make([]*client, 0, len(that.subscribers[event.RoomID]))
	for _, c := range that.subscribers[event.RoomID] {
		targets = append(targets, c)
	}
	that.connectionsMutex.RUnlock()

	for _, c := range targets {
		if !c.enqueue(frame) {
			that.logger.Warn("dropped slow connection", "session_id", c.sessionID, "room_id", event.RoomID)
		}
	}

	if event.Type == entity.EventRoomDeleted {
		that.dropRoom(event.RoomID)
	}

	return nil
}

func (that *Server) dropRoom(roomID string) {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	for _, c := range that.subscribers[roomID] {
		c.SetRoomID("")
	}
	delete(that.subscribers, roomID)
}

func (that *Server) closeAll() {
	that.connectionsMutex.RLock()
	defer that.connectionsMutex.RUnlock()

	for _, c := range that.connections {
		c.close()
	}
}

func (that *Server) sendMessage(c *client, action string, payload ResponsePayload) error {
	frame, err := encode(action, payload)
	if err != nil {
		return err
	}

	if !c.enqueue(frame) {
		return fmt.Errorf("failed to send %s to session %s: connection closed", action, c.sessionID)
	}

	return nil
}

func (that *Server) sendError(c *client, action, reason string) {
	if err := that.sendMessage(c, action, ResponsePayload{Error: reason}); err != nil {
		that.logger.Debug("failed to send error", "session_id", c.sessionID, "error", err)
	}
}
