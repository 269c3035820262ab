package game

// Message is the wire envelope for everything the server pushes. Seq is
// assigned per table so clients can drop stale state updates.
type Message struct {
	Type string      `json:"type"`
	Seq  int64       `json:"seq"`
	Data interface{} `json:"data"`
}

// Server push types.
const (
	MsgTableCreated = "tableCreated"
	MsgTableList    = "tableList"
	MsgPlayerJoined = "playerJoined"
	MsgPlayerLeft   = "playerLeft"
	MsgGameState    = "gameState"
	MsgPrivateHand  = "privateHand"
	MsgRevealHands  = "revealHands"
	MsgHandComplete = "handComplete"
	MsgGameEnded    = "gameEnded"
	MsgActionAck    = "actionAck"
	MsgChat         = "chatMessage"
	MsgChatHistory  = "chatHistory"
	MsgError        = "error"
	MsgPong         = "pong"
)

// Sender delivers messages to connections. The websocket hub implements it;
// tests substitute a recorder.
type Sender interface {
	// ToPlayer delivers to the identity's active connection, if any.
	ToPlayer(playerID string, msg Message)
	// ToTable delivers to every connection joined to the table's channel.
	ToTable(tableID string, msg Message)
}

type PrivateHandPayload struct {
	TableID string `json:"tableId"`
	Hand    []Card `json:"hand"`
}

type PlayerJoinedPayload struct {
	Player     SeatView  `json:"player"`
	TableState TableView `json:"tableState"`
}

type PlayerLeftPayload struct {
	PlayerID   string    `json:"playerId"`
	TableState TableView `json:"tableState"`
}

// RevealSeat pairs a still-active player with their hole cards for the
// end-of-hand reveal.
type RevealSeat struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Hand     []Card `json:"hand"`
}

type RevealPayload struct {
	TableState TableView    `json:"tableState"`
	Hands      []RevealSeat `json:"hands"`
	Reveal     bool         `json:"reveal"`
}

type Winner struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
	Hand     []Card `json:"hand"`
	Amount   int64  `json:"amount"`
}

type HandCompletePayload struct {
	Winners    []Winner  `json:"winners"`
	TableState TableView `json:"tableState"`
}

type GameEndedPayload struct {
	Winner string `json:"winner"`
	Reason string `json:"reason"`
	Amount int64  `json:"amount"`
}

type ActionAckPayload struct {
	TableID string `json:"tableId"`
	Action  string `json:"action"`
	Amount  int64  `json:"amount"`
	OK      bool   `json:"ok"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// HandRecord is handed to the audit hook after every completed hand.
type HandRecord struct {
	TableID   string
	TableName string
	Pot       int64
	Winners   []Winner
	Community []Card
	Reason    string // showdown/last_player/forfeit/forced
}
