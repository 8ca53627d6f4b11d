package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"eventease/internal/auth"
	"eventease/internal/model"
	"eventease/internal/repo"
	"eventease/pkg/validator"
)

var (
	ErrEventNotFound    = errors.New("event not found")
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Draft is the payload for creating an event. Title, description, date and
// time are required; location is optional.
type Draft struct {
	Title       string `validate:"required,max=255"`
	Description string `validate:"required"`
	Date        string `validate:"required,eventdate"`
	Time        string `validate:"required,eventtime"`
	Location    *model.Location
}

// Patch carries a partial update: only set fields are merged.
type Patch struct {
	Title       *string `validate:"omitempty,min=1,max=255"`
	Description *string `validate:"omitempty,min=1"`
	Date        *string `validate:"omitempty,eventdate"`
	Time        *string `validate:"omitempty,eventtime"`
	Location    *model.Location
}

// Manager owns the authoritative in-memory event list and mirrors it to the
// repository on every mutation. All mutations serialize behind one mutex, so
// two overlapping read-modify-write operations cannot lose an update; the
// in-memory list only advances after the mirrored write succeeds.
type Manager struct {
	repo repo.Repository
	auth *auth.Manager
	log  *zerolog.Logger

	mu     sync.Mutex
	events []model.Event
}

func NewManager(r repo.Repository, a *auth.Manager, log *zerolog.Logger) *Manager {
	return &Manager{
		repo:   r,
		auth:   a,
		log:    log,
		events: []model.Event{},
	}
}

// Refresh replaces the in-memory list with the persisted one. It runs on
// startup and whenever the authenticated user changes.
func (m *Manager) Refresh(ctx context.Context) error {
	list, err := m.repo.LoadEvents(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.events = list
	m.mu.Unlock()

	m.log.Debug().Int("count", len(list)).Msg("event list refreshed")
	return nil
}

// List returns a snapshot of all events with IsParticipating derived for
// the current user (always false when anonymous).
func (m *Manager) List() []model.Event {
	user := m.auth.Current()

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Event, len(m.events))
	for i, e := range m.events {
		out[i] = m.derive(e, user)
	}
	return out
}

// Get returns a snapshot of one event, or ErrEventNotFound.
func (m *Manager) Get(id string) (*model.Event, error) {
	user := m.auth.Current()

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.events {
		if e.ID == id {
			ev := m.derive(e, user)
			return &ev, nil
		}
	}
	return nil, ErrEventNotFound
}

// Create validates the draft, assigns an identifier and creation timestamp,
// attaches the current user as creator and persists the grown list. It
// fails with ErrNotAuthenticated when no user is logged in; the check lives
// here, not only at the presentation layer.
func (m *Manager) Create(ctx context.Context, draft Draft) (*model.Event, error) {
	user := m.auth.Current()
	if user == nil {
		return nil, ErrNotAuthenticated
	}
	if err := validator.Validate(ctx, draft); err != nil {
		return nil, err
	}

	ev := model.Event{
		ID:           uuid.NewString(),
		Title:        draft.Title,
		Description:  draft.Description,
		Date:         draft.Date,
		Time:         draft.Time,
		Location:     draft.Location,
		CreatedBy:    user.ID,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		Participants: []string{},
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := append(m.snapshot(), ev)
	if err := m.repo.SaveEvents(ctx, next); err != nil {
		return nil, err
	}
	m.events = next

	m.log.Info().Str("event_id", ev.ID).Str("created_by", user.ID).Msg("event created")
	out := m.derive(ev, user)
	return &out, nil
}

// Update merges the set fields of patch into the event with the given id
// and persists the full list. A missing id fails with ErrEventNotFound.
func (m *Manager) Update(ctx context.Context, id string, patch Patch) (*model.Event, error) {
	if err := validator.Validate(ctx, patch); err != nil {
		return nil, err
	}
	user := m.auth.Current()

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(id)
	if idx < 0 {
		return nil, ErrEventNotFound
	}

	next := m.snapshot()
	merged := next[idx]
	if patch.Title != nil {
		merged.Title = *patch.Title
	}
	if patch.Description != nil {
		merged.Description = *patch.Description
	}
	if patch.Date != nil {
		merged.Date = *patch.Date
	}
	if patch.Time != nil {
		merged.Time = *patch.Time
	}
	if patch.Location != nil {
		merged.Location = patch.Location
	}
	next[idx] = merged

	if err := m.repo.SaveEvents(ctx, next); err != nil {
		return nil, err
	}
	m.events = next

	m.log.Info().Str("event_id", id).Msg("event updated")
	out := m.derive(merged, user)
	return &out, nil
}

// Delete removes the event with the given id and persists the remainder.
// A missing id fails with ErrEventNotFound.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(id)
	if idx < 0 {
		return ErrEventNotFound
	}

	next := m.snapshot()
	next = append(next[:idx], next[idx+1:]...)

	if err := m.repo.SaveEvents(ctx, next); err != nil {
		return err
	}
	m.events = next

	m.log.Info().Str("event_id", id).Msg("event deleted")
	return nil
}

// ToggleParticipation removes the current user from the event's participant
// list when present (every occurrence), appends them otherwise. Toggling
// twice in sequence restores the original list.
func (m *Manager) ToggleParticipation(ctx context.Context, id string) (*model.Event, error) {
	user := m.auth.Current()
	if user == nil {
		return nil, ErrNotAuthenticated
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(id)
	if idx < 0 {
		return nil, ErrEventNotFound
	}

	next := m.snapshot()
	ev := next[idx]

	participating := false
	for _, pid := range ev.Participants {
		if pid == user.ID {
			participating = true
			break
		}
	}

	if participating {
		kept := make([]string, 0, len(ev.Participants))
		for _, pid := range ev.Participants {
			if pid != user.ID {
				kept = append(kept, pid)
			}
		}
		ev.Participants = kept
	} else {
		ev.Participants = append(append([]string{}, ev.Participants...), user.ID)
	}
	next[idx] = ev

	if err := m.repo.SaveEvents(ctx, next); err != nil {
		return nil, err
	}
	m.events = next

	m.log.Info().
		Str("event_id", id).
		Str("user_id", user.ID).
		Bool("participating", !participating).
		Msg("participation toggled")
	out := m.derive(ev, user)
	return &out, nil
}

// snapshot copies the list so a failed persist leaves the committed state
// untouched. Callers must hold m.mu.
func (m *Manager) snapshot() []model.Event {
	next := make([]model.Event, len(m.events))
	copy(next, m.events)
	return next
}

// indexOf returns the position of id in the list, or -1. Callers must hold m.mu.
func (m *Manager) indexOf(id string) int {
	for i := range m.events {
		if m.events[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) derive(e model.Event, user *model.User) model.Event {
	e.IsParticipating = false
	if user != nil {
		for _, pid := range e.Participants {
			if pid == user.ID {
				e.IsParticipating = true
				break
			}
		}
	}
	return e
}
