package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"holdem-service/internal/config"
	"holdem-service/internal/game"
	"holdem-service/internal/service"
	servAuth "holdem-service/internal/service/auth"
	"holdem-service/pkg/logger"
	"holdem-service/pkg/utils/random"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handler upgrades connections and routes client intents. One websocket
// carries everything: lobby, table play, and chat.
type Handler struct {
	svc *service.Container
	hub *Hub
}

func NewHandler(svc *service.Container, hub *Hub) *Handler {
	return &Handler{svc: svc, hub: hub}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// HandleWS authenticates best-effort and upgrades. A missing or bad token
// never refuses the connection; the caller plays as a guest instead.
func (h *Handler) HandleWS(c *gin.Context) {
	identity := h.resolveIdentity(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	logger.Log.Info("New WebSocket connection",
		zap.String("playerID", identity.ID),
		zap.String("username", identity.Username),
		zap.Bool("guest", identity.Guest),
	)

	client := newClient(h.hub, h, conn, identity)
	h.hub.register(client)
	client.run()
}

func (h *Handler) resolveIdentity(c *gin.Context) *servAuth.Identity {
	if token := tokenFromRequest(c); token != "" {
		identity, err := h.svc.Auth.VerifyIdentity(c.Request.Context(), token)
		if err == nil {
			return identity
		}
		logger.Log.Info("token rejected, falling back to guest", zap.Error(err))
	}
	return &servAuth.Identity{
		ID:       "guest-" + uuid.NewString(),
		Username: "Guest_" + random.Code(5),
		Chips:    config.GlobalConfig.Game.StartingChips,
		Guest:    true,
	}
}

func tokenFromRequest(c *gin.Context) string {
	if token := strings.TrimSpace(c.Query("token")); token != "" {
		return token
	}
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// onDisconnect runs exactly once per connection, from the read pump's defer.
// When the connection is still the identity's current one, the registry
// vacates every seat it held, which settles any hand that can no longer
// continue. A connection that was replaced by a reconnect leaves the new
// connection's seats alone.
func (h *Handler) onDisconnect(c *Client) {
	if !h.hub.unregister(c) {
		return
	}
	h.svc.Tables.Disconnect(c.identity.ID)
	logger.Log.Info("WebSocket disconnected",
		zap.String("playerID", c.identity.ID),
	)
}

type createTableReq struct {
	Name       string `json:"name"`
	Capacity   int    `json:"capacity"`
	SmallBlind int64  `json:"smallBlind"`
	BigBlind   int64  `json:"bigBlind"`
}

type tableRef struct {
	TableID string `json:"tableId"`
}

type gameActionReq struct {
	TableID string `json:"tableId"`
	Action  string `json:"action"`
	Amount  int64  `json:"amount"`
}

type chatReq struct {
	TableID string `json:"tableId"`
	Message string `json:"message"`
}

type chatPayload struct {
	TableID  string    `json:"tableId"`
	Username string    `json:"username"`
	Message  string    `json:"message"`
	SentAt   time.Time `json:"sentAt"`
}

// dispatch routes one decoded intent. A panic in any branch is contained to
// this intent; the connection stays up.
func (h *Handler) dispatch(c *Client, intentType string, data json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("panic handling intent",
				zap.Any("panic", r),
				zap.String("type", intentType),
				zap.String("playerID", c.identity.ID),
			)
			h.reportIntentFault(c, data)
		}
	}()

	switch intentType {
	case "createTable":
		h.handleCreateTable(c, data)
	case "listTables":
		c.enqueue(game.Message{Type: game.MsgTableList, Data: h.svc.Tables.List()})
	case "joinTable":
		h.handleJoinTable(c, data)
	case "getTableState":
		h.handleGetTableState(c, data)
	case "gameAction":
		h.handleGameAction(c, data)
	case "chatMessage":
		h.handleChat(c, data)
	case "ping":
		c.enqueue(game.Message{Type: game.MsgPong})
	default:
		c.sendError("unknown message type: "+intentType)
	}
}

// reportIntentFault tells the caller the server faulted, and when the intent
// named a table, tells everyone in that table's room too. The other seats see
// something went wrong instead of a table that silently stopped moving.
func (h *Handler) reportIntentFault(c *Client, data json.RawMessage) {
	msg := game.Message{
		Type: game.MsgError,
		Data: game.ErrorPayload{Message: "internal error"},
	}
	c.enqueue(msg)

	var ref tableRef
	if err := json.Unmarshal(data, &ref); err == nil && ref.TableID != "" {
		h.hub.ToTable(ref.TableID, msg)
	}
}

func (h *Handler) handleCreateTable(c *Client, data json.RawMessage) {
	var req createTableReq
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("invalid payload")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		req.Name = c.identity.Username + "'s table"
	}
	rt := h.svc.Tables.Create(req.Name, req.Capacity, req.SmallBlind, req.BigBlind)
	c.enqueue(game.Message{Type: game.MsgTableCreated, Data: rt.Summary()})
}

func (h *Handler) handleJoinTable(c *Client, data json.RawMessage) {
	var req tableRef
	if err := json.Unmarshal(data, &req); err != nil || req.TableID == "" {
		c.sendError("invalid payload")
		return
	}
	rt, ok := h.svc.Tables.Get(req.TableID)
	if !ok {
		c.sendError("table not found")
		return
	}

	// Subscribe before seating so the join broadcast reaches this
	// connection too.
	h.hub.joinRoom(req.TableID, c.identity.ID)

	if rt.HasPlayer(c.identity.ID) {
		rt.Resume(c.identity.ID)
		return
	}

	player := &game.Player{
		ID:       c.identity.ID,
		Username: c.identity.Username,
		Guest:    c.identity.Guest,
		Chips:    h.svc.BuyIn(context.Background(), c.identity.ID, c.identity.Guest),
	}
	if err := rt.Join(player); err != nil {
		h.hub.leaveRoom(req.TableID, c.identity.ID)
		c.sendError(err.Error())
		return
	}

	h.sendChatHistory(c, req.TableID)
}

func (h *Handler) handleGetTableState(c *Client, data json.RawMessage) {
	var req tableRef
	if err := json.Unmarshal(data, &req); err != nil || req.TableID == "" {
		c.sendError("invalid payload")
		return
	}
	rt, ok := h.svc.Tables.Get(req.TableID)
	if !ok {
		c.sendError("table not found")
		return
	}
	h.hub.joinRoom(req.TableID, c.identity.ID)
	rt.Resume(c.identity.ID)
	h.sendChatHistory(c, req.TableID)
}

func (h *Handler) handleGameAction(c *Client, data json.RawMessage) {
	var req gameActionReq
	if err := json.Unmarshal(data, &req); err != nil || req.TableID == "" {
		c.sendError("invalid payload")
		return
	}
	rt, ok := h.svc.Tables.Get(req.TableID)
	if !ok {
		c.sendError("table not found")
		return
	}
	if err := rt.HandleAction(c.identity.ID, req.Action, req.Amount); err != nil {
		c.enqueue(game.Message{Type: game.MsgActionAck, Data: game.ActionAckPayload{
			TableID: req.TableID,
			Action:  req.Action,
			Amount:  req.Amount,
			OK:      false,
		}})
		c.sendError(err.Error())
		return
	}
	c.enqueue(game.Message{Type: game.MsgActionAck, Data: game.ActionAckPayload{
		TableID: req.TableID,
		Action:  req.Action,
		Amount:  req.Amount,
		OK:      true,
	}})
}

func (h *Handler) handleChat(c *Client, data json.RawMessage) {
	var req chatReq
	if err := json.Unmarshal(data, &req); err != nil || req.TableID == "" {
		c.sendError("invalid payload")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return
	}
	if _, ok := h.svc.Tables.Get(req.TableID); !ok {
		c.sendError("table not found")
		return
	}

	entry := h.svc.Chat.Record(context.Background(), req.TableID, c.identity.Username, req.Message)
	h.hub.ToTable(req.TableID, game.Message{Type: game.MsgChat, Data: chatPayload{
		TableID:  req.TableID,
		Username: entry.Username,
		Message:  entry.Message,
		SentAt:   entry.SentAt,
	}})
}

func (h *Handler) sendChatHistory(c *Client, tableID string) {
	entries := h.svc.Chat.History(context.Background(), tableID)
	if len(entries) == 0 {
		return
	}
	payload := make([]chatPayload, 0, len(entries))
	for _, e := range entries {
		payload = append(payload, chatPayload{
			TableID:  tableID,
			Username: e.Username,
			Message:  e.Message,
			SentAt:   e.SentAt,
		})
	}
	c.enqueue(game.Message{Type: game.MsgChatHistory, Data: payload})
}

func (c *Client) sendError(msg string) {
	c.enqueue(game.Message{
		Type: game.MsgError,
		Data: game.ErrorPayload{Message: msg},
	})
}
