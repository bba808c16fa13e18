// Package cache keeps the user's team, dashboard, leagues and linked flag in
// memory, mirrored to a durable store so a restart shows the last known data
// before the first network call completes.
package cache

import (
	"sync"

	"github.com/jrsteele09/fpl-companion/fpl"
	"github.com/jrsteele09/fpl-companion/internal/errors"
	"github.com/jrsteele09/fpl-companion/metrics"
	"github.com/jrsteele09/fpl-companion/storage"
	"github.com/jrsteele09/fpl-companion/storage/memory"
	"github.com/rs/zerolog"
)

// Entity names double as the durable mirror keys.
type Entity string

const (
	EntityLinked    Entity = "linked-flag"
	EntityTeam      Entity = "team"
	EntityDashboard Entity = "dashboard"
	EntityLeagues   Entity = "leagues"
)

// AllEntities lists every cached entity.
var AllEntities = []Entity{EntityLinked, EntityTeam, EntityDashboard, EntityLeagues}

// Activity describes in-flight or failed mutations, separate from the per
// entity load state.
type Activity struct {
	Syncing       bool   `json:"syncing"`
	SyncError     string `json:"sync_error,omitempty"`
	MutationError string `json:"mutation_error,omitempty"`
}

// State is a consistent snapshot of the whole cache.
type State struct {
	Linked    SlotState[bool]          `json:"linked"`
	Team      SlotState[fpl.Team]      `json:"team"`
	Dashboard SlotState[fpl.Dashboard] `json:"dashboard"`
	Leagues   SlotState[fpl.Leagues]   `json:"leagues"`
	Activity  Activity                 `json:"activity"`
}

// IsLinked is nil while unknown.
func (s State) IsLinked() *bool {
	return s.Linked.Value
}

// Loading reports whether any entity is loading or a sync is running.
func (s State) Loading() bool {
	return s.Team.Loading || s.Dashboard.Loading || s.Leagues.Loading || s.Activity.Syncing
}

type clearable interface {
	clearLocked() error
	hydrateLocked()
}

type Cache struct {
	lock     sync.RWMutex
	store    storage.Store
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	activity Activity

	Linked    *PersistedSlot[bool]
	Team      *PersistedSlot[fpl.Team]
	Dashboard *PersistedSlot[fpl.Dashboard]
	Leagues   *PersistedSlot[fpl.Leagues]

	slots map[Entity]clearable
}

type Option func(*Cache)

func WithLogger(l zerolog.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// New builds the cache and hydrates every slot from store before returning.
// A nil store keeps the mirror in memory only.
func New(store storage.Store, opts ...Option) *Cache {
	if store == nil {
		store = memory.New()
	}
	c := &Cache{
		store:  store,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Linked = newSlot[bool](c, EntityLinked)
	c.Team = newSlot[fpl.Team](c, EntityTeam)
	c.Dashboard = newSlot[fpl.Dashboard](c, EntityDashboard)
	c.Leagues = newSlot[fpl.Leagues](c, EntityLeagues)
	c.slots = map[Entity]clearable{
		EntityLinked:    c.Linked,
		EntityTeam:      c.Team,
		EntityDashboard: c.Dashboard,
		EntityLeagues:   c.Leagues,
	}

	c.Reload()
	return c
}

// Reload discards in-memory state and hydrates again from the store.
func (c *Cache) Reload() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.activity = Activity{}
	for _, entity := range AllEntities {
		c.slots[entity].hydrateLocked()
	}
}

// Snapshot returns every slot and the activity under a single read lock.
func (c *Cache) Snapshot() State {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return State{
		Linked:    c.Linked.stateLocked(),
		Team:      c.Team.stateLocked(),
		Dashboard: c.Dashboard.stateLocked(),
		Leagues:   c.Leagues.stateLocked(),
		Activity:  c.activity,
	}
}

// Clear empties the given slots and their mirror entries atomically with
// respect to Snapshot. All slots are cleared even if a mirror removal fails.
func (c *Cache) Clear(entities ...Entity) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	var errs []error
	for _, entity := range entities {
		slot, ok := c.slots[entity]
		if !ok {
			errs = append(errs, errors.Wrapf(errors.ErrInvalidRequest, "unknown entity %q", entity))
			continue
		}
		if err := slot.clearLocked(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Cache) Activity() Activity {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.activity
}

func (c *Cache) SetSyncing(syncing bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.activity.Syncing = syncing
	if syncing {
		c.activity.SyncError = ""
	}
}

func (c *Cache) SetSyncError(msg string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.activity.SyncError = msg
}

func (c *Cache) SetMutationError(msg string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.activity.MutationError = msg
}
