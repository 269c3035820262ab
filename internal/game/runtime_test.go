package game_test

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"holdem-service/internal/game"
	appErr "holdem-service/pkg/errors"

	"github.com/stretchr/testify/require"
)

// recorder captures everything a runtime sends so tests can assert on the
// broadcast stream instead of reaching into table internals.
type recorder struct {
	mu     sync.Mutex
	table  []game.Message
	direct map[string][]game.Message
}

func newRecorder() *recorder {
	return &recorder{direct: make(map[string][]game.Message)}
}

func (r *recorder) ToPlayer(playerID string, msg game.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.direct[playerID] = append(r.direct[playerID], msg)
}

func (r *recorder) ToTable(tableID string, msg game.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.table = append(r.table, msg)
}

// lastState returns the most recent sanitized table broadcast.
func (r *recorder) lastState(t *testing.T) game.TableView {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.table) - 1; i >= 0; i-- {
		if r.table[i].Type == game.MsgGameState {
			return r.table[i].Data.(game.TableView)
		}
	}
	t.Fatal("no gameState broadcast recorded")
	return game.TableView{}
}

func (r *recorder) lastOfType(msgType string) (game.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.table) - 1; i >= 0; i-- {
		if r.table[i].Type == msgType {
			return r.table[i], true
		}
	}
	return game.Message{}, false
}

func (r *recorder) directOfType(playerID, msgType string) []game.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []game.Message
	for _, m := range r.direct[playerID] {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

func newTestRuntime(revealDelay time.Duration) (*game.Runtime, *recorder) {
	rec := newRecorder()
	tbl := game.NewTable("tbl-1", "Test Table", 6, 10, 20)
	rt := game.NewRuntime(tbl, rec, rand.New(rand.NewSource(1)), revealDelay, nil)
	return rt, rec
}

func seat(t *testing.T, rt *game.Runtime, id string, chips int64) {
	t.Helper()
	err := rt.Join(&game.Player{ID: id, Username: "user-" + id, Chips: chips})
	require.NoError(t, err)
}

func findSeat(view game.TableView, id string) (game.SeatView, bool) {
	for _, s := range view.Seats {
		if s.ID == id {
			return s, true
		}
	}
	return game.SeatView{}, false
}

func seatView(t *testing.T, view game.TableView, id string) game.SeatView {
	t.Helper()
	s, ok := findSeat(view, id)
	if !ok {
		t.Fatalf("player %s not in view", id)
	}
	return s
}

func TestHandStartsWhenSecondPlayerJoins(t *testing.T) {
	rt, rec := newTestRuntime(time.Hour)

	seat(t, rt, "p1", 1000)
	joined, ok := rec.lastOfType(game.MsgPlayerJoined)
	require.True(t, ok)
	require.Equal(t, game.StatusWaiting, joined.Data.(game.PlayerJoinedPayload).TableState.Status)

	seat(t, rt, "p2", 1000)
	view := rec.lastState(t)

	require.Equal(t, game.StatusPlaying, view.Status)
	require.Equal(t, game.RoundPreFlop, view.Round)
	require.Equal(t, int64(30), view.Pot)
	require.Equal(t, int64(20), view.CurrentBet)

	// Heads-up ring: dealer seat 0, small blind seat 1, big blind wraps to
	// seat 0, first to act is the seat after the big blind.
	require.Equal(t, 0, view.DealerSeat)
	require.Equal(t, 1, view.SBSeat)
	require.Equal(t, 0, view.BBSeat)
	require.Equal(t, 1, view.TurnSeat)

	require.Equal(t, int64(10), seatView(t, view, "p2").Bet)
	require.Equal(t, int64(990), seatView(t, view, "p2").Chips)
	require.Equal(t, int64(20), seatView(t, view, "p1").Bet)
	require.Equal(t, int64(980), seatView(t, view, "p1").Chips)

	// Hole cards go only to their owner and never into the broadcast.
	for _, id := range []string{"p1", "p2"} {
		hands := rec.directOfType(id, game.MsgPrivateHand)
		require.NotEmpty(t, hands, "missing private hand for %s", id)
		payload := hands[len(hands)-1].Data.(game.PrivateHandPayload)
		require.Len(t, payload.Hand, 2)
	}
}

func TestActionOutOfTurnRejected(t *testing.T) {
	rt, _ := newTestRuntime(time.Hour)
	seat(t, rt, "p1", 1000)
	seat(t, rt, "p2", 1000)

	err := rt.HandleAction("p1", "call", 0)
	require.ErrorIs(t, err, appErr.ErrNotYourTurn)

	err = rt.HandleAction("ghost", "call", 0)
	require.ErrorIs(t, err, appErr.ErrSeatNotFound)
}

func TestActionBeforeHandRejected(t *testing.T) {
	rt, _ := newTestRuntime(time.Hour)
	seat(t, rt, "p1", 1000)

	err := rt.HandleAction("p1", "call", 0)
	require.ErrorIs(t, err, appErr.ErrTableNotPlaying)
}

func TestCheckRequiresMatchedBet(t *testing.T) {
	rt, rec := newTestRuntime(time.Hour)
	seat(t, rt, "p1", 1000)
	seat(t, rt, "p2", 1000)

	// p2 posted the small blind and still owes half the big blind.
	err := rt.HandleAction("p2", "check", 0)
	require.ErrorIs(t, err, appErr.ErrInvalidCheck)

	// The rejection mutates nothing.
	view := rec.lastState(t)
	require.Equal(t, 1, view.TurnSeat)
	require.Equal(t, int64(30), view.Pot)
}

func TestRaiseBounds(t *testing.T) {
	rt, rec := newTestRuntime(time.Hour)
	seat(t, rt, "p1", 1000)
	seat(t, rt, "p2", 1000)

	// Below double the current bet.
	require.ErrorIs(t, rt.HandleAction("p2", "raise", 39), appErr.ErrInvalidRaise)
	// Beyond the stack.
	require.ErrorIs(t, rt.HandleAction("p2", "raise", 5000), appErr.ErrInvalidRaise)

	require.NoError(t, rt.HandleAction("p2", "raise", 40))
	view := rec.lastState(t)
	require.Equal(t, int64(40), view.CurrentBet)
	require.Equal(t, int64(60), view.Pot) // blinds 30 plus the 30 on top of the posted small blind
	require.Equal(t, int64(40), seatView(t, view, "p2").Bet)
	require.Equal(t, int64(960), seatView(t, view, "p2").Chips)
	require.Equal(t, 0, view.TurnSeat)
}

func TestCallCompletingRoundDealsFlop(t *testing.T) {
	rt, rec := newTestRuntime(time.Hour)
	seat(t, rt, "p1", 1000)
	seat(t, rt, "p2", 1000)

	// The small blind's call matches the big blind, which completes the
	// betting round.
	require.NoError(t, rt.HandleAction("p2", "call", 0))

	view := rec.lastState(t)
	require.Equal(t, game.RoundFlop, view.Round)
	require.Len(t, view.Community, 3)
	require.Equal(t, int64(40), view.Pot)
	require.Equal(t, int64(0), view.CurrentBet)
	for _, s := range view.Seats {
		require.Equal(t, int64(0), s.Bet)
	}
	require.Equal(t, 1, view.TurnSeat)
}

func TestStreetsRunToShowdownAndPotIsConserved(t *testing.T) {
	rt, rec := newTestRuntime(time.Hour)
	seat(t, rt, "p1", 1000)
	seat(t, rt, "p2", 1000)

	require.NoError(t, rt.HandleAction("p2", "call", 0)) // flop
	require.NoError(t, rt.HandleAction("p2", "check", 0))
	view := rec.lastState(t)
	require.Equal(t, game.RoundTurn, view.Round)
	require.Len(t, view.Community, 4)

	require.NoError(t, rt.HandleAction("p2", "check", 0))
	view = rec.lastState(t)
	require.Equal(t, game.RoundRiver, view.Round)
	require.Len(t, view.Community, 5)

	require.NoError(t, rt.HandleAction("p2", "check", 0)) // showdown

	complete, ok := rec.lastOfType(game.MsgHandComplete)
	require.True(t, ok)
	payload := complete.Data.(game.HandCompletePayload)
	require.NotEmpty(t, payload.Winners)

	var paid int64
	for _, w := range payload.Winners {
		require.Len(t, w.Hand, 2)
		paid += w.Amount
	}
	// Floor split: a tie between two winners pays 20 each from a 40 pot.
	require.Equal(t, int64(40)/int64(len(payload.Winners))*int64(len(payload.Winners)), paid)

	reveal, ok := rec.lastOfType(game.MsgRevealHands)
	require.True(t, ok)
	revealPayload := reveal.Data.(game.RevealPayload)
	require.True(t, revealPayload.Reveal)
	require.Len(t, revealPayload.Hands, 2)

	// Every chip paid out landed on a stack and the pot is empty.
	settled := revealPayload.TableState
	require.Equal(t, int64(0), settled.Pot)
	var total int64
	for _, s := range settled.Seats {
		total += s.Chips
	}
	require.Equal(t, int64(1960)+paid, total)
}

func TestFoldLeavesLastPlayerThePot(t *testing.T) {
	rt, rec := newTestRuntime(time.Hour)
	seat(t, rt, "p1", 1000)
	seat(t, rt, "p2", 1000)

	require.NoError(t, rt.HandleAction("p2", "fold", 0))

	complete, ok := rec.lastOfType(game.MsgHandComplete)
	require.True(t, ok)
	payload := complete.Data.(game.HandCompletePayload)
	require.Len(t, payload.Winners, 1)
	require.Equal(t, "p1", payload.Winners[0].ID)
	require.Equal(t, int64(30), payload.Winners[0].Amount)

	view := payload.TableState
	require.Equal(t, int64(0), view.Pot)
	require.Equal(t, int64(1010), seatView(t, view, "p1").Chips)
	require.Equal(t, int64(990), seatView(t, view, "p2").Chips)

	// The hand is settled; nothing is actionable until the next deal.
	err := rt.HandleAction("p1", "check", 0)
	require.ErrorIs(t, err, appErr.ErrTableNotPlaying)
}

func TestNextHandDealsAfterRevealDelay(t *testing.T) {
	rt, rec := newTestRuntime(30 * time.Millisecond)
	seat(t, rt, "p1", 1000)
	seat(t, rt, "p2", 1000)

	require.NoError(t, rt.HandleAction("p2", "fold", 0))

	require.Eventually(t, func() bool {
		view := rec.lastState(t)
		return view.Round == game.RoundPreFlop && view.Pot == 30 && view.DealerSeat == 1
	}, time.Second, 5*time.Millisecond)
}

func TestMidHandJoinerSitsOutUntilNextDeal(t *testing.T) {
	rt, rec := newTestRuntime(30 * time.Millisecond)
	seat(t, rt, "p1", 1000)
	seat(t, rt, "p2", 1000)
	seat(t, rt, "p3", 1000)

	joined, ok := rec.lastOfType(game.MsgPlayerJoined)
	require.True(t, ok)
	view := joined.Data.(game.PlayerJoinedPayload).TableState
	require.True(t, seatView(t, view, "p3").Folded)
	require.Equal(t, 2, seatView(t, view, "p3").Seat)

	// The sat-out seat cannot act and does not block round completion.
	require.ErrorIs(t, rt.HandleAction("p3", "call", 0), appErr.ErrNotYourTurn)
	require.NoError(t, rt.HandleAction("p2", "fold", 0))

	// Next deal includes the third seat.
	require.Eventually(t, func() bool {
		s, ok := findSeat(rec.lastState(t), "p3")
		return ok && !s.Folded
	}, time.Second, 5*time.Millisecond)
}

func TestLeaveMidHandForfeitsToRemainingPlayer(t *testing.T) {
	rt, rec := newTestRuntime(time.Hour)
	seat(t, rt, "p1", 1000)
	seat(t, rt, "p2", 1000)

	departed := rt.Leave("p2")
	require.NotNil(t, departed)
	require.Equal(t, int64(990), departed.Chips) // small blind stays in the pot

	ended, ok := rec.lastOfType(game.MsgGameEnded)
	require.True(t, ok)
	payload := ended.Data.(game.GameEndedPayload)
	require.Equal(t, "user-p1", payload.Winner)
	require.Equal(t, int64(30), payload.Amount)

	view := rec.lastState(t)
	require.Equal(t, game.StatusWaiting, view.Status)
	require.Equal(t, int64(1010), seatView(t, view, "p1").Chips)
	require.Equal(t, int64(0), view.Pot)
}

func TestLeaveOfActingSeatPassesTheTurn(t *testing.T) {
	rt, rec := newTestRuntime(30 * time.Millisecond)
	seat(t, rt, "p1", 1000)
	seat(t, rt, "p2", 1000)
	seat(t, rt, "p3", 1000)

	// Finish the heads-up hand so the next deal seats all three.
	require.NoError(t, rt.HandleAction("p2", "fold", 0))
	require.Eventually(t, func() bool {
		view := rec.lastState(t)
		s, ok := findSeat(view, "p3")
		return view.Round == game.RoundPreFlop && len(view.Seats) == 3 && ok && !s.Folded
	}, time.Second, 5*time.Millisecond)

	view := rec.lastState(t)
	turnSeat := view.TurnSeat
	var turnID string
	for _, s := range view.Seats {
		if s.Seat == turnSeat {
			turnID = s.ID
		}
	}
	require.NotEmpty(t, turnID)

	departed := rt.Leave(turnID)
	require.NotNil(t, departed)

	after := rec.lastState(t)
	require.Equal(t, game.StatusPlaying, after.Status)
	require.NotEqual(t, turnSeat, after.TurnSeat)
}

func TestLeaveAtStreetStartKeepsTheBettingRound(t *testing.T) {
	rt, rec := newTestRuntime(30 * time.Millisecond)
	seat(t, rt, "p1", 1000)
	seat(t, rt, "p2", 1000)
	seat(t, rt, "p3", 1000)

	// Finish the heads-up hand so the next deal seats all three.
	require.NoError(t, rt.HandleAction("p2", "fold", 0))
	require.Eventually(t, func() bool {
		view := rec.lastState(t)
		s, ok := findSeat(view, "p3")
		return view.Round == game.RoundPreFlop && len(view.Seats) == 3 && ok && !s.Folded
	}, time.Second, 5*time.Millisecond)

	// Dealer is seat 1, so seat 1 opens and the calls close pre-flop.
	require.NoError(t, rt.HandleAction("p2", "call", 0))
	require.NoError(t, rt.HandleAction("p3", "call", 0))

	view := rec.lastState(t)
	require.Equal(t, game.RoundFlop, view.Round)
	require.Len(t, view.Community, 3)
	require.Equal(t, 2, view.TurnSeat)

	// The big blind leaves before anyone has acted on the flop. Nobody has
	// bet yet, so the flop must stay open for the remaining seats.
	departed := rt.Leave("p1")
	require.NotNil(t, departed)

	after := rec.lastState(t)
	require.Equal(t, game.StatusPlaying, after.Status)
	require.Equal(t, game.RoundFlop, after.Round)
	require.Len(t, after.Community, 3)
	require.Equal(t, 2, after.TurnSeat)

	// The seats still in the hand close the round themselves.
	require.NoError(t, rt.HandleAction("p3", "check", 0))
	final := rec.lastState(t)
	require.Equal(t, game.RoundTurn, final.Round)
	require.Len(t, final.Community, 4)
}

func TestForceTerminateAwardsFirstActiveSeat(t *testing.T) {
	rt, rec := newTestRuntime(time.Hour)
	seat(t, rt, "p1", 1000)
	seat(t, rt, "p2", 1000)

	rt.ForceTerminate()

	ended, ok := rec.lastOfType(game.MsgGameEnded)
	require.True(t, ok)
	payload := ended.Data.(game.GameEndedPayload)
	require.Equal(t, "user-p1", payload.Winner)
	require.Equal(t, "Terminated by an operator", payload.Reason)
	require.Equal(t, int64(30), payload.Amount)

	view := rec.lastState(t)
	require.Equal(t, game.StatusWaiting, view.Status)
	require.Equal(t, int64(1010), seatView(t, view, "p1").Chips)
}

func TestSeatNumbersAreNeverReused(t *testing.T) {
	rt, rec := newTestRuntime(time.Hour)
	seat(t, rt, "p1", 1000)
	seat(t, rt, "p2", 1000)

	require.NotNil(t, rt.Leave("p1"))

	seat(t, rt, "p3", 1000)
	view := rec.lastState(t)
	require.Equal(t, 1, seatView(t, view, "p2").Seat)
	require.Equal(t, 2, seatView(t, view, "p3").Seat)
}

func TestJoinFullTableRejected(t *testing.T) {
	rec := newRecorder()
	tbl := game.NewTable("tbl-2", "Tiny", 2, 10, 20)
	rt := game.NewRuntime(tbl, rec, rand.New(rand.NewSource(1)), time.Hour, nil)

	seat(t, rt, "p1", 1000)
	seat(t, rt, "p2", 1000)

	err := rt.Join(&game.Player{ID: "p3", Username: "user-p3", Chips: 1000})
	require.True(t, errors.Is(err, appErr.ErrTableFull))
}

func TestResumeRedeliversStateAndPrivateHand(t *testing.T) {
	rt, rec := newTestRuntime(time.Hour)
	seat(t, rt, "p1", 1000)
	seat(t, rt, "p2", 1000)

	rt.Resume("p1")
	states := rec.directOfType("p1", game.MsgGameState)
	require.NotEmpty(t, states)
	hands := rec.directOfType("p1", game.MsgPrivateHand)
	require.NotEmpty(t, hands)

	// A spectator gets state but no cards.
	rt.Resume("watcher")
	require.NotEmpty(t, rec.directOfType("watcher", game.MsgGameState))
	require.Empty(t, rec.directOfType("watcher", game.MsgPrivateHand))
}
