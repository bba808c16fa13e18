package cache

import (
	"encoding/json"

	"github.com/jrsteele09/fpl-companion/internal/errors"
	"github.com/jrsteele09/fpl-companion/internal/utils"
)

// SlotState is a point-in-time view of one cached entity.
type SlotState[T any] struct {
	Value   *T     `json:"value"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// HasValue reports whether a value (network or hydrated) is present.
func (s SlotState[T]) HasValue() bool {
	return s.Value != nil
}

// PersistedSlot holds one entity in memory and mirrors its value to the
// cache's durable store. Every write replaces the whole value and is
// serialised by the owning Cache's lock.
type PersistedSlot[T any] struct {
	cache  *Cache
	entity Entity
	state  SlotState[T]
}

func newSlot[T any](c *Cache, entity Entity) *PersistedSlot[T] {
	return &PersistedSlot[T]{cache: c, entity: entity}
}

func (s *PersistedSlot[T]) Entity() Entity {
	return s.entity
}

func (s *PersistedSlot[T]) State() SlotState[T] {
	s.cache.lock.RLock()
	defer s.cache.lock.RUnlock()
	return s.stateLocked()
}

// Value returns the current value, or the zero value and false when empty.
func (s *PersistedSlot[T]) Value() (T, bool) {
	st := s.State()
	return utils.Value(st.Value), st.HasValue()
}

// Begin marks the slot as loading. The current value stays readable.
func (s *PersistedSlot[T]) Begin() {
	s.cache.lock.Lock()
	defer s.cache.lock.Unlock()
	s.state.Loading = true
}

// Set stores v, clears the error and mirrors the value. A nil v clears the
// slot and removes its mirror entry. The in-memory value is updated even
// when the mirror write fails.
func (s *PersistedSlot[T]) Set(v *T) error {
	s.cache.lock.Lock()
	defer s.cache.lock.Unlock()
	return s.setLocked(v)
}

// Fail records msg and ends loading. The previous value is kept so stale
// data stays available.
func (s *PersistedSlot[T]) Fail(msg string) {
	s.cache.lock.Lock()
	defer s.cache.lock.Unlock()
	s.state.Loading = false
	s.state.Error = msg
}

// Abandon ends loading without touching the value or error. It is used when
// the result of a load is dropped.
func (s *PersistedSlot[T]) Abandon() {
	s.cache.lock.Lock()
	defer s.cache.lock.Unlock()
	s.state.Loading = false
}

func (s *PersistedSlot[T]) Clear() error {
	return s.Set(nil)
}

func (s *PersistedSlot[T]) stateLocked() SlotState[T] {
	st := s.state
	if st.Value != nil {
		v := *st.Value
		st.Value = &v
	}
	return st
}

func (s *PersistedSlot[T]) setLocked(v *T) error {
	s.state.Loading = false
	s.state.Error = ""
	if v == nil {
		s.state.Value = nil
		s.cache.metrics.ObserveCacheWrite(string(s.entity), "clear")
		if err := s.cache.store.Remove(string(s.entity)); err != nil {
			s.cache.logger.Error().Err(err).Str("entity", string(s.entity)).Msg("[cache Set] removing mirror entry failed")
			return errors.Wrapf(errors.ErrStorage, "removing %s: %v", s.entity, err)
		}
		return nil
	}

	copied := *v
	s.state.Value = &copied
	s.cache.metrics.ObserveCacheWrite(string(s.entity), "set")

	data, err := json.Marshal(copied)
	if err != nil {
		s.cache.logger.Error().Err(err).Str("entity", string(s.entity)).Msg("[cache Set] encoding mirror entry failed")
		return errors.Wrapf(errors.ErrStorage, "encoding %s: %v", s.entity, err)
	}
	if err := s.cache.store.Set(string(s.entity), data); err != nil {
		s.cache.logger.Error().Err(err).Str("entity", string(s.entity)).Msg("[cache Set] writing mirror entry failed")
		return errors.Wrapf(errors.ErrStorage, "writing %s: %v", s.entity, err)
	}
	return nil
}

func (s *PersistedSlot[T]) clearLocked() error {
	return s.setLocked(nil)
}

// hydrateLocked replaces the in-memory state with the mirrored value. Missing
// or unreadable entries leave the slot empty.
func (s *PersistedSlot[T]) hydrateLocked() {
	s.state = SlotState[T]{}

	data, ok, err := s.cache.store.Get(string(s.entity))
	switch {
	case err != nil:
		s.cache.logger.Warn().Err(err).Str("entity", string(s.entity)).Msg("[cache hydrate] reading mirror entry failed")
		s.cache.metrics.ObserveHydrationMiss(string(s.entity), "error")
		return
	case !ok:
		s.cache.metrics.ObserveHydrationMiss(string(s.entity), "absent")
		return
	}

	var v *T
	if err := json.Unmarshal(data, &v); err != nil {
		s.cache.logger.Warn().Err(err).Str("entity", string(s.entity)).Msg("[cache hydrate] ignoring malformed mirror entry")
		s.cache.metrics.ObserveHydrationMiss(string(s.entity), "malformed")
		return
	}
	s.state.Value = v
}
