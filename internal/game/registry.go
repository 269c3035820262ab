package game

import (
	"math/rand"
	"sync"
	"time"

	appErr "holdem-service/pkg/errors"

	"github.com/google/uuid"
)

// Settings carries the table defaults the registry stamps onto new tables.
type Settings struct {
	DefaultSmallBlind int64
	DefaultBigBlind   int64
	RevealDelay       time.Duration
}

// Hooks are optional callbacks into the persistence layer. Both may be nil;
// the engine runs identically without them.
type Hooks struct {
	// HandLog receives a record of every completed hand.
	HandLog func(HandRecord)
	// SeatReleased fires when a seat is vacated, with the player's final
	// stack, so registered accounts can have their balance written back.
	SeatReleased func(playerID string, chips int64, guest bool)
}

// Registry is the process-wide table map. It is constructed at server start
// and injected wherever tables are resolved; there are no package globals.
// Entries live until process shutdown.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]*Runtime

	sender   Sender
	settings Settings
	hooks    Hooks
	rng      *rand.Rand
}

func NewRegistry(sender Sender, settings Settings, hooks Hooks) *Registry {
	if settings.DefaultSmallBlind <= 0 {
		settings.DefaultSmallBlind = 10
	}
	if settings.DefaultBigBlind <= 0 {
		settings.DefaultBigBlind = 20
	}
	if settings.RevealDelay <= 0 {
		settings.RevealDelay = 3 * time.Second
	}
	return &Registry{
		tables:   make(map[string]*Runtime),
		sender:   sender,
		settings: settings,
		hooks:    hooks,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Create allocates a waiting table and returns its runtime. Zero or negative
// arguments fall back to the configured defaults.
func (r *Registry) Create(name string, capacity int, smallBlind, bigBlind int64) *Runtime {
	if capacity < 2 {
		capacity = 2
	}
	if smallBlind <= 0 {
		smallBlind = r.settings.DefaultSmallBlind
	}
	if bigBlind <= 0 {
		bigBlind = r.settings.DefaultBigBlind
	}

	t := NewTable(uuid.NewString(), name, capacity, smallBlind, bigBlind)

	r.mu.Lock()
	// Each runtime gets its own source: rand.Rand is not safe for use from
	// multiple table goroutines.
	rt := NewRuntime(t, r.sender, rand.New(rand.NewSource(r.rng.Int63())), r.settings.RevealDelay, r.hooks.HandLog)
	r.tables[t.ID] = rt
	r.mu.Unlock()
	return rt
}

func (r *Registry) Get(tableID string) (*Runtime, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.tables[tableID]
	return rt, ok
}

// List produces sanitized lobby summaries for every table.
func (r *Registry) List() []Summary {
	r.mu.RLock()
	runtimes := make([]*Runtime, 0, len(r.tables))
	for _, rt := range r.tables {
		runtimes = append(runtimes, rt)
	}
	r.mu.RUnlock()

	out := make([]Summary, 0, len(runtimes))
	for _, rt := range runtimes {
		out = append(out, rt.Summary())
	}
	return out
}

// Join seats the player at the table, starting a hand when it fills to two.
func (r *Registry) Join(tableID string, p *Player) error {
	rt, ok := r.Get(tableID)
	if !ok {
		return appErr.ErrTableNotFound
	}
	return rt.Join(p)
}

// Disconnect removes the identity's seat from every table it occupies.
// Modeled as a first-class lifecycle event so transport teardown and an
// explicit leave behave identically.
func (r *Registry) Disconnect(playerID string) {
	r.mu.RLock()
	runtimes := make([]*Runtime, 0, len(r.tables))
	for _, rt := range r.tables {
		runtimes = append(runtimes, rt)
	}
	r.mu.RUnlock()

	for _, rt := range runtimes {
		if p := rt.Leave(playerID); p != nil && r.hooks.SeatReleased != nil {
			r.hooks.SeatReleased(p.ID, p.Chips, p.Guest)
		}
	}
}

// Audit returns the operator view of every table.
func (r *Registry) Audit() []AuditView {
	r.mu.RLock()
	runtimes := make([]*Runtime, 0, len(r.tables))
	for _, rt := range r.tables {
		runtimes = append(runtimes, rt)
	}
	r.mu.RUnlock()

	out := make([]AuditView, 0, len(runtimes))
	for _, rt := range runtimes {
		out = append(out, rt.Audit())
	}
	return out
}

// ForceTerminate ends the table's hand by operator decree.
func (r *Registry) ForceTerminate(tableID string) error {
	rt, ok := r.Get(tableID)
	if !ok {
		return appErr.ErrTableNotFound
	}
	rt.ForceTerminate()
	return nil
}
