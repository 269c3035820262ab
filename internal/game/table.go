package game

type Status string

const (
	StatusWaiting Status = "waiting"
	StatusPlaying Status = "playing"
)

type Round string

const (
	RoundNone    Round = ""
	RoundPreFlop Round = "pre-flop"
	RoundFlop    Round = "flop"
	RoundTurn    Round = "turn"
	RoundRiver   Round = "river"
)

// Player is one occupied seat. Seat numbers are assigned once at join time
// from a per-table counter and never reused, so turn rotation and blind
// placement stay correct when an earlier seat leaves mid-session.
type Player struct {
	ID       string
	Username string
	Guest    bool
	Chips    int64
	Hand     []Card
	Bet      int64 // contribution in the current betting round
	Folded   bool
	Seat     int
}

// Table is the mutable state of one table. It carries no locking of its own;
// the owning Runtime serializes all access.
type Table struct {
	ID         string
	Name       string
	Capacity   int
	SmallBlind int64
	BigBlind   int64

	Players   []*Player // join order, Seat strictly ascending
	Pot       int64
	Community []Card
	Status    Status
	Round     Round

	TurnSeat   int // stable seat number to act, -1 when none
	DealerSeat int // -1 before the first hand
	SBSeat     int
	BBSeat     int
	CurrentBet int64
	LastRaise  int64

	deck     *Deck
	seatNext int
}

func NewTable(id, name string, capacity int, smallBlind, bigBlind int64) *Table {
	return &Table{
		ID:         id,
		Name:       name,
		Capacity:   capacity,
		SmallBlind: smallBlind,
		BigBlind:   bigBlind,
		Players:    make([]*Player, 0, capacity),
		Status:     StatusWaiting,
		TurnSeat:   -1,
		DealerSeat: -1,
		SBSeat:     -1,
		BBSeat:     -1,
	}
}

func (t *Table) addPlayer(p *Player) {
	p.Seat = t.seatNext
	t.seatNext++
	t.Players = append(t.Players, p)
}

func (t *Table) removePlayer(id string) *Player {
	for i, p := range t.Players {
		if p.ID == id {
			t.Players = append(t.Players[:i], t.Players[i+1:]...)
			return p
		}
	}
	return nil
}

func (t *Table) playerByID(id string) *Player {
	for _, p := range t.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (t *Table) playerBySeat(seat int) *Player {
	for _, p := range t.Players {
		if p.Seat == seat {
			return p
		}
	}
	return nil
}

func (t *Table) activePlayers() []*Player {
	active := make([]*Player, 0, len(t.Players))
	for _, p := range t.Players {
		if !p.Folded {
			active = append(active, p)
		}
	}
	return active
}

// nextSeat walks the ring of occupied seats and returns the first seat
// strictly after the given one, wrapping. Players is kept in ascending seat
// order, so the first higher seat wins and the wrap target is Players[0].
func (t *Table) nextSeat(after int) int {
	if len(t.Players) == 0 {
		return -1
	}
	for _, p := range t.Players {
		if p.Seat > after {
			return p.Seat
		}
	}
	return t.Players[0].Seat
}

// nextActiveSeat is nextSeat skipping folded players, with bounded attempts
// so inconsistent state cannot spin forever.
func (t *Table) nextActiveSeat(after int) int {
	seat := after
	for attempts := 0; attempts <= len(t.Players)+1; attempts++ {
		seat = t.nextSeat(seat)
		if seat < 0 {
			return -1
		}
		if p := t.playerBySeat(seat); p != nil && !p.Folded {
			return seat
		}
	}
	return -1
}

func (t *Table) resetBets() {
	for _, p := range t.Players {
		p.Bet = 0
	}
	t.CurrentBet = 0
	t.LastRaise = 0
}

// roundComplete reports whether every non-folded player has matched the
// table's current bet.
func (t *Table) roundComplete() bool {
	for _, p := range t.Players {
		if !p.Folded && p.Bet != t.CurrentBet {
			return false
		}
	}
	return true
}

// SeatView is a player as everyone at the table may see them. Hole cards are
// deliberately absent.
type SeatView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Chips    int64  `json:"chips"`
	Bet      int64  `json:"bet"`
	Folded   bool   `json:"folded"`
	Seat     int    `json:"seat"`
}

// TableView is the sanitized broadcast state.
type TableView struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Seats      []SeatView `json:"players"`
	Pot        int64      `json:"pot"`
	Community  []Card     `json:"community"`
	TurnSeat   int        `json:"turnSeat"`
	DealerSeat int        `json:"dealerSeat"`
	SBSeat     int        `json:"sbSeat"`
	BBSeat     int        `json:"bbSeat"`
	Status     Status     `json:"status"`
	Round      Round      `json:"round"`
	CurrentBet int64      `json:"currentBet"`
	SmallBlind int64      `json:"smallBlind"`
	BigBlind   int64      `json:"bigBlind"`
}

func (t *Table) view() TableView {
	seats := make([]SeatView, 0, len(t.Players))
	for _, p := range t.Players {
		seats = append(seats, SeatView{
			ID:       p.ID,
			Username: p.Username,
			Chips:    p.Chips,
			Bet:      p.Bet,
			Folded:   p.Folded,
			Seat:     p.Seat,
		})
	}
	return TableView{
		ID:         t.ID,
		Name:       t.Name,
		Seats:      seats,
		Pot:        t.Pot,
		Community:  append([]Card(nil), t.Community...),
		TurnSeat:   t.TurnSeat,
		DealerSeat: t.DealerSeat,
		SBSeat:     t.SBSeat,
		BBSeat:     t.BBSeat,
		Status:     t.Status,
		Round:      t.Round,
		CurrentBet: t.CurrentBet,
		SmallBlind: t.SmallBlind,
		BigBlind:   t.BigBlind,
	}
}

// Summary is the lobby listing entry.
type Summary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Seated     int    `json:"seated"`
	Capacity   int    `json:"capacity"`
	Status     Status `json:"status"`
	SmallBlind int64  `json:"smallBlind"`
	BigBlind   int64  `json:"bigBlind"`
}

func (t *Table) summary() Summary {
	return Summary{
		ID:         t.ID,
		Name:       t.Name,
		Seated:     len(t.Players),
		Capacity:   t.Capacity,
		Status:     t.Status,
		SmallBlind: t.SmallBlind,
		BigBlind:   t.BigBlind,
	}
}

// AuditView is the operator inspection snapshot: seat chip counts and round
// state, still without hole cards.
type AuditView struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Status   Status     `json:"status"`
	Seats    []SeatView `json:"players"`
	Pot      int64      `json:"pot"`
	Round    Round      `json:"round"`
	TurnSeat int        `json:"turnSeat"`
}

func (t *Table) audit() AuditView {
	v := t.view()
	return AuditView{
		ID:       t.ID,
		Name:     t.Name,
		Status:   t.Status,
		Seats:    v.Seats,
		Pot:      t.Pot,
		Round:    t.Round,
		TurnSeat: t.TurnSeat,
	}
}
