// Package hub pushes sheet changes to WebSocket subscribers and accepts
// commands from them.
package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	mdwerror "github.com/msto63/gridwerk/foundation/core/error"
	"github.com/msto63/gridwerk/internal/sheetd/service"
	"github.com/msto63/gridwerk/internal/sheetd/store"
	"github.com/msto63/gridwerk/pkg/core/logging"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 120 * time.Second
	pingPeriod  = 50 * time.Second
	sendBuffer  = 64
	readLimit   = 64 * 1024
	execTimeout = 30 * time.Second
)

// Server event types
const (
	EventExecuteCommand = "execute_command"
	EventSnapshot       = "snapshot"
	EventResult         = "result"
	EventPong           = "pong"
	EventError          = "error"
)

// Client message types
const (
	MessagePing           = "ping"
	MessageExecute        = "execute"
	MessageFunctionResult = "function_result"
)

// Executor is the part of the sheet service the hub needs
type Executor interface {
	Get(ctx context.Context, id string) (*store.Sheet, error)
	Execute(ctx context.Context, id, input, source string) (*service.Execution, error)
}

// Message is a WebSocket message in either direction
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CommandPayload carries a command string
type CommandPayload struct {
	Command string `json:"command"`
}

// ResultPayload carries the text of an execution
type ResultPayload struct {
	Command string `json:"command"`
	Text    string `json:"text"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Source  string `json:"source"`
}

// SnapshotPayload carries the current sheet
type SnapshotPayload struct {
	Sheet service.SheetView `json:"sheet"`
}

// FunctionResultPayload is a client acknowledgement
type FunctionResultPayload struct {
	Result string `json:"result"`
}

// ErrorPayload represents an error
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type client struct {
	id      string
	sheetID string
	conn    *websocket.Conn
	send    chan []byte
	once    sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub tracks subscribers per sheet
type Hub struct {
	exec     Executor
	logger   *logging.Logger
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
}

// New creates a hub. CheckOrigin allows every origin when allowedOrigins
// is empty or contains "*".
func New(exec Executor, allowedOrigins []string, logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.New("sheet-hub")
	}
	return &Hub{
		exec:   exec,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		rooms: make(map[string]map[*client]struct{}),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || len(set) == 0 || set[origin]
	}
}

// Serve upgrades the request and subscribes the connection to sheetID. It
// blocks until the connection closes.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, sheetID string) {
	sh, err := h.exec.Get(r.Context(), sheetID)
	if err != nil {
		status := http.StatusInternalServerError
		if mdwerror.HasCode(err, mdwerror.CodeNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err.Error())
		return
	}

	c := &client{
		id:      uuid.New().String(),
		sheetID: sheetID,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
	}
	h.register(c)
	h.logger.Info("WebSocket subscriber connected", "sheet_id", sheetID, "client_id", c.id, "remote", conn.RemoteAddr().String())

	h.sendTo(c, EventSnapshot, SnapshotPayload{Sheet: service.View(sh)})

	done := make(chan struct{})
	go func() {
		h.writePump(c)
		close(done)
	}()

	h.readLoop(c)
	h.unregister(c)
	<-done
	conn.Close()
}

// PublishExecution broadcasts a run: the command, its result and, if the
// sheet changed, the new snapshot
func (h *Hub) PublishExecution(ex *service.Execution) {
	h.broadcast(ex.SheetID, EventExecuteCommand, CommandPayload{Command: ex.Command})

	res := ResultPayload{Command: ex.Command, Text: ex.Text, Source: ex.Source}
	if ex.Err != nil {
		res.Error = ex.Err.Error()
		res.Code = string(mdwerror.GetCode(ex.Err))
	}
	h.broadcast(ex.SheetID, EventResult, res)

	if ex.Saved && ex.Sheet != nil {
		h.broadcast(ex.SheetID, EventSnapshot, SnapshotPayload{Sheet: service.View(ex.Sheet)})
	}
}

// PublishSheet broadcasts the current snapshot
func (h *Hub) PublishSheet(sh *store.Sheet) {
	h.broadcast(sh.ID, EventSnapshot, SnapshotPayload{Sheet: service.View(sh)})
}

// Subscribers returns the number of connections watching sheetID
func (h *Hub) Subscribers(sheetID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sheetID])
}

// Stats returns the number of watched sheets and open connections
func (h *Hub) Stats() (sheets, connections int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, room := range h.rooms {
		connections += len(room)
	}
	return len(h.rooms), connections
}

// Close disconnects every subscriber
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, room := range h.rooms {
		for c := range room {
			c.close()
		}
		delete(h.rooms, id)
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[c.sheetID]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[c.sheetID] = room
	}
	room[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.rooms[c.sheetID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, c.sheetID)
		}
	}
	c.close()
}

func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket read error", "client_id", c.id, "error", err.Error())
			} else {
				h.logger.Info("WebSocket subscriber disconnected", "client_id", c.id)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		switch msg.Type {
		case MessagePing:
			h.sendTo(c, EventPong, nil)

		case MessageExecute:
			var payload CommandPayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Command == "" {
				h.sendError(c, "invalid_payload", "execute requires a command")
				continue
			}
			h.execute(c, payload.Command)

		case MessageFunctionResult:
			var payload FunctionResultPayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				h.sendError(c, "invalid_payload", "invalid function_result payload")
				continue
			}
			h.logger.Info("Function result received", "client_id", c.id, "sheet_id", c.sheetID, "result", payload.Result)

		default:
			h.sendError(c, "unknown_type", "unknown message type: "+msg.Type)
		}
	}
}

// execute runs a command for a subscriber. Results reach every subscriber
// through PublishExecution; failures that prevent a run go to c only.
func (h *Hub) execute(c *client, command string) {
	ctx, cancel := context.WithTimeout(context.Background(), execTimeout)
	defer cancel()

	ex, err := h.exec.Execute(ctx, c.sheetID, command, service.SourceWebSocket)
	if ex == nil && err != nil {
		h.sendError(c, string(mdwerror.GetCode(err)), err.Error())
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Warn("WebSocket send error", "client_id", c.id, "error", err.Error())
				c.conn.Close()
				h.drain(c)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.conn.Close()
				h.drain(c)
				return
			}
		}
	}
}

// drain discards queued messages until the channel is closed
func (h *Hub) drain(c *client) {
	for range c.send {
	}
}

func (h *Hub) broadcast(sheetID, eventType string, payload interface{}) {
	data, err := encode(eventType, payload)
	if err != nil {
		h.logger.Error("Failed to encode event", "type", eventType, "error", err.Error())
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[sheetID] {
		h.enqueue(c, data)
	}
}

func (h *Hub) sendTo(c *client, eventType string, payload interface{}) {
	data, err := encode(eventType, payload)
	if err != nil {
		h.logger.Error("Failed to encode event", "type", eventType, "error", err.Error())
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.rooms[c.sheetID][c]; ok {
		h.enqueue(c, data)
	}
}

func (h *Hub) sendError(c *client, code, message string) {
	h.sendTo(c, EventError, ErrorPayload{Code: code, Message: message})
}

// enqueue never blocks; a subscriber that cannot keep up is disconnected.
// Called with h.mu held.
func (h *Hub) enqueue(c *client, data []byte) {
	select {
	case c.send <- data:
	default:
		h.logger.Warn("WebSocket subscriber too slow, disconnecting", "client_id", c.id)
		c.conn.Close()
	}
}

func encode(eventType string, payload interface{}) ([]byte, error) {
	msg := Message{Type: eventType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Payload = raw
	}
	return json.Marshal(msg)
}
