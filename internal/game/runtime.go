package game

import (
	"math/rand"
	"sync"
	"time"

	appErr "holdem-service/pkg/errors"
	"holdem-service/pkg/logger"

	"go.uber.org/zap"
)

// Runtime owns one Table. Every entry point takes the mutex, so the table is
// never observed or mutated by two in-flight intents; methods with the
// *Locked suffix assume the caller holds it.
type Runtime struct {
	mu sync.Mutex

	t      *Table
	sender Sender
	rng    *rand.Rand
	seq    int64

	revealDelay   time.Duration
	nextHandTimer *time.Timer
	handOver      bool // reveal window: hand settled, next hand not yet dealt

	onHandLog func(HandRecord)
}

func NewRuntime(t *Table, sender Sender, rng *rand.Rand, revealDelay time.Duration, onHandLog func(HandRecord)) *Runtime {
	return &Runtime{
		t:           t,
		sender:      sender,
		rng:         rng,
		revealDelay: revealDelay,
		onHandLog:   onHandLog,
	}
}

func (rt *Runtime) TableID() string {
	return rt.t.ID
}

// Join seats a player. When the table reaches two seated players while
// waiting, the first hand starts immediately. A player joining mid-hand sits
// out (folded) until the next hand is dealt.
func (rt *Runtime) Join(p *Player) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if len(rt.t.Players) >= rt.t.Capacity {
		return appErr.ErrTableFull
	}

	p.Bet = 0
	p.Hand = nil
	p.Folded = rt.t.Status == StatusPlaying
	rt.t.addPlayer(p)

	rt.broadcastLocked(MsgPlayerJoined, PlayerJoinedPayload{
		Player: SeatView{
			ID:       p.ID,
			Username: p.Username,
			Chips:    p.Chips,
			Bet:      p.Bet,
			Folded:   p.Folded,
			Seat:     p.Seat,
		},
		TableState: rt.t.view(),
	})

	if len(rt.t.Players) >= 2 && rt.t.Status == StatusWaiting {
		rt.startHandLocked()
	}
	return nil
}

// Leave removes the identity's seat, if it holds one, and returns the
// departed player so callers can persist the final stack. Dropping an active
// table below two seated players terminates the hand immediately and awards
// the pot to the sole remaining seat; this path must never panic, so it does
// no showdown work at all.
func (rt *Runtime) Leave(playerID string) *Player {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	departed := rt.t.removePlayer(playerID)
	if departed == nil {
		return nil
	}

	rt.broadcastLocked(MsgPlayerLeft, PlayerLeftPayload{
		PlayerID:   playerID,
		TableState: rt.t.view(),
	})

	if rt.t.Status != StatusPlaying {
		return departed
	}

	if rt.handOver {
		// Hand already settled; only a table left too empty for the next
		// deal needs handling.
		if len(rt.t.Players) < 2 {
			rt.cancelNextHandLocked()
			rt.resetToWaitingLocked()
			rt.broadcastStateLocked()
		}
		return departed
	}

	if len(rt.t.Players) < 2 {
		var last *Player
		if len(rt.t.Players) == 1 {
			last = rt.t.Players[0]
		}
		rt.terminateLocked(last, "Other players left the table", "forfeit")
		return departed
	}

	// The hand continues without the departed seat. Its chips stay in the
	// pot. If it was that seat's turn, play moves on. A departure never
	// closes the betting round by itself: bets are all zero at the start of
	// every street, so bet equality here says nothing about who still owes
	// an action, and the remaining players can close the round with a check.
	if rt.t.TurnSeat == departed.Seat {
		rt.t.TurnSeat = rt.t.nextActiveSeat(departed.Seat)
	}
	if len(rt.t.activePlayers()) <= 1 {
		rt.progressRoundLocked()
	} else {
		rt.broadcastStateLocked()
	}
	return departed
}

// HandleAction applies fold/check/call/raise submitted by the seat to act.
// Rejections mutate nothing.
func (rt *Runtime) HandleAction(playerID, action string, amount int64) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.t.Status != StatusPlaying || rt.handOver {
		return appErr.ErrTableNotPlaying
	}
	p := rt.t.playerByID(playerID)
	if p == nil {
		return appErr.ErrSeatNotFound
	}
	if rt.t.TurnSeat != p.Seat {
		return appErr.ErrNotYourTurn
	}

	switch action {
	case "fold":
		p.Folded = true

	case "call":
		delta := rt.t.CurrentBet - p.Bet
		p.Chips -= delta
		p.Bet = rt.t.CurrentBet
		rt.t.Pot += delta

	case "check":
		if p.Bet != rt.t.CurrentBet {
			return appErr.ErrInvalidCheck
		}

	case "raise":
		if amount < rt.t.CurrentBet*2 || amount > p.Chips {
			return appErr.ErrInvalidRaise
		}
		delta := amount - p.Bet
		p.Chips -= delta
		p.Bet = amount
		rt.t.Pot += delta
		rt.t.LastRaise = amount - rt.t.CurrentBet
		rt.t.CurrentBet = amount

	default:
		return appErr.ErrNotYourTurn
	}

	rt.t.TurnSeat = rt.t.nextActiveSeat(rt.t.TurnSeat)

	if rt.t.roundComplete() {
		rt.progressRoundLocked()
	} else {
		rt.broadcastStateLocked()
	}
	return nil
}

// Resume re-delivers the current sanitized state to one connection, plus the
// private hand if the identity holds a seat in the running hand.
func (rt *Runtime) Resume(playerID string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.sendLocked(playerID, MsgGameState, rt.t.view())
	if p := rt.t.playerByID(playerID); p != nil && len(p.Hand) > 0 {
		rt.sendLocked(playerID, MsgPrivateHand, PrivateHandPayload{
			TableID: rt.t.ID,
			Hand:    append([]Card(nil), p.Hand...),
		})
	}
}

// ForceTerminate is the operator escape hatch: award the pot to the first
// active seat, reset to waiting, broadcast.
func (rt *Runtime) ForceTerminate() {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	var winner *Player
	if active := rt.t.activePlayers(); len(active) > 0 {
		winner = active[0]
	}
	rt.terminateLocked(winner, "Terminated by an operator", "forced")
}

func (rt *Runtime) Summary() Summary {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.t.summary()
}

func (rt *Runtime) Audit() AuditView {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.t.audit()
}

func (rt *Runtime) Seated() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.t.Players)
}

// HasPlayer reports whether the identity currently holds a seat.
func (rt *Runtime) HasPlayer(playerID string) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.t.playerByID(playerID) != nil
}

func (rt *Runtime) startHandLocked() {
	t := rt.t

	t.Status = StatusPlaying
	t.Round = RoundPreFlop
	rt.handOver = false
	t.deck = NewDeck(rt.rng)
	t.Pot = 0
	t.Community = t.Community[:0]
	t.CurrentBet = t.BigBlind
	t.LastRaise = t.BigBlind

	t.DealerSeat = t.nextSeat(t.DealerSeat)

	for _, p := range t.Players {
		p.Hand = []Card{t.deck.Draw(), t.deck.Draw()}
		p.Bet = 0
		p.Folded = false
	}

	t.SBSeat = t.nextSeat(t.DealerSeat)
	t.BBSeat = t.nextSeat(t.SBSeat)

	sb := t.playerBySeat(t.SBSeat)
	bb := t.playerBySeat(t.BBSeat)
	sb.Chips -= t.SmallBlind
	sb.Bet = t.SmallBlind
	bb.Chips -= t.BigBlind
	bb.Bet = t.BigBlind
	t.Pot = t.SmallBlind + t.BigBlind

	t.TurnSeat = t.nextSeat(t.BBSeat)

	logger.Log.Info("hand started",
		zap.String("tableID", t.ID),
		zap.Int("players", len(t.Players)),
		zap.Int("dealerSeat", t.DealerSeat),
	)

	rt.broadcastStateLocked()
}

func (rt *Runtime) progressRoundLocked() {
	t := rt.t

	if len(t.activePlayers()) == 1 {
		rt.endHandLocked()
		return
	}

	switch t.Round {
	case RoundPreFlop:
		t.Round = RoundFlop
		t.Community = append(t.Community, t.deck.Draw(), t.deck.Draw(), t.deck.Draw())
	case RoundFlop:
		t.Round = RoundTurn
		t.Community = append(t.Community, t.deck.Draw())
	case RoundTurn:
		t.Round = RoundRiver
		t.Community = append(t.Community, t.deck.Draw())
	case RoundRiver:
		rt.endHandLocked()
		return
	}

	t.resetBets()
	t.TurnSeat = t.nextActiveSeat(t.DealerSeat)
	rt.broadcastStateLocked()
}

func (rt *Runtime) endHandLocked() {
	t := rt.t
	active := t.activePlayers()
	pot := t.Pot

	// Pay out before any broadcast and empty the pot first, so every view
	// that leaves this function holds the invariant that the pot only ever
	// contains unawarded chips.
	t.Pot = 0
	t.TurnSeat = -1
	rt.handOver = true

	var winners []Winner
	reason := "showdown"
	if len(active) == 1 {
		w := active[0]
		w.Chips += pot
		winners = []Winner{{
			ID:       w.ID,
			Username: w.Username,
			Score:    Evaluate(append(append([]Card(nil), w.Hand...), t.Community...)),
			Hand:     append([]Card(nil), w.Hand...),
			Amount:   pot,
		}}
		reason = "last_player"
	} else {
		best := Winners(active, t.Community)
		// Indivisible pots lose the remainder chips; the split is floor
		// division.
		share := pot / int64(len(best))
		for _, w := range best {
			w.Chips += share
			winners = append(winners, Winner{
				ID:       w.ID,
				Username: w.Username,
				Score:    Evaluate(append(append([]Card(nil), w.Hand...), t.Community...)),
				Hand:     append([]Card(nil), w.Hand...),
				Amount:   share,
			})
		}
	}

	rt.broadcastLocked(MsgHandComplete, HandCompletePayload{
		Winners:    winners,
		TableState: t.view(),
	})

	reveal := make([]RevealSeat, 0, len(active))
	for _, p := range active {
		reveal = append(reveal, RevealSeat{
			ID:       p.ID,
			Username: p.Username,
			Hand:     append([]Card(nil), p.Hand...),
		})
	}
	rt.broadcastLocked(MsgRevealHands, RevealPayload{
		TableState: t.view(),
		Hands:      reveal,
		Reveal:     true,
	})

	if rt.onHandLog != nil {
		rec := HandRecord{
			TableID:   t.ID,
			TableName: t.Name,
			Pot:       pot,
			Winners:   winners,
			Community: append([]Card(nil), t.Community...),
			Reason:    reason,
		}
		go rt.onHandLog(rec)
	}

	// Status stays playing through the reveal window; the continuation
	// re-checks state under the lock, so it cannot race a join or leave.
	rt.cancelNextHandLocked()
	rt.nextHandTimer = time.AfterFunc(rt.revealDelay, rt.onRevealElapsed)
}

func (rt *Runtime) onRevealElapsed() {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.t.Status != StatusPlaying {
		return
	}
	if len(rt.t.Players) < 2 {
		rt.resetToWaitingLocked()
		rt.broadcastStateLocked()
		return
	}
	rt.startHandLocked()
}

// terminateLocked is the minimal, non-showdown hand teardown used for
// forfeits and operator force-ends.
func (rt *Runtime) terminateLocked(winner *Player, reason, logReason string) {
	t := rt.t
	amount := t.Pot
	winnerName := ""
	if winner != nil {
		winner.Chips += amount
		winnerName = winner.Username
	}

	rt.cancelNextHandLocked()
	rt.resetToWaitingLocked()

	rt.broadcastStateLocked()
	rt.broadcastLocked(MsgGameEnded, GameEndedPayload{
		Winner: winnerName,
		Reason: reason,
		Amount: amount,
	})

	if rt.onHandLog != nil && amount > 0 {
		rec := HandRecord{
			TableID:   t.ID,
			TableName: t.Name,
			Pot:       amount,
			Reason:    logReason,
		}
		if winner != nil {
			rec.Winners = []Winner{{ID: winner.ID, Username: winner.Username, Amount: amount}}
		}
		go rt.onHandLog(rec)
	}
}

func (rt *Runtime) resetToWaitingLocked() {
	t := rt.t
	rt.handOver = false
	t.Status = StatusWaiting
	t.Round = RoundNone
	t.Pot = 0
	t.Community = t.Community[:0]
	t.CurrentBet = 0
	t.LastRaise = 0
	t.TurnSeat = -1
	t.SBSeat = -1
	t.BBSeat = -1
	t.deck = nil
	for _, p := range t.Players {
		p.Hand = nil
		p.Bet = 0
		p.Folded = false
	}
}

func (rt *Runtime) cancelNextHandLocked() {
	if rt.nextHandTimer != nil {
		rt.nextHandTimer.Stop()
		rt.nextHandTimer = nil
	}
}

// broadcastStateLocked pushes the sanitized state to the table and each
// seated player's own hole cards to that player only.
func (rt *Runtime) broadcastStateLocked() {
	rt.broadcastLocked(MsgGameState, rt.t.view())
	if rt.t.Status != StatusPlaying {
		return
	}
	for _, p := range rt.t.Players {
		if len(p.Hand) == 0 {
			continue
		}
		rt.sendLocked(p.ID, MsgPrivateHand, PrivateHandPayload{
			TableID: rt.t.ID,
			Hand:    append([]Card(nil), p.Hand...),
		})
	}
}

func (rt *Runtime) broadcastLocked(msgType string, data interface{}) {
	rt.sender.ToTable(rt.t.ID, Message{Type: msgType, Seq: rt.nextSeqLocked(), Data: data})
}

func (rt *Runtime) sendLocked(playerID, msgType string, data interface{}) {
	rt.sender.ToPlayer(playerID, Message{Type: msgType, Seq: rt.nextSeqLocked(), Data: data})
}

func (rt *Runtime) nextSeqLocked() int64 {
	rt.seq++
	return rt.seq
}
