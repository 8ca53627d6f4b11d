package events

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"eventease/internal/auth"
	"eventease/internal/repo"
)

func newTestManager(t *testing.T) (*Manager, *auth.Manager) {
	t.Helper()
	log := zerolog.Nop()
	r, err := repo.NewRepository(filepath.Join(t.TempDir(), "kv.db"), &log)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })

	a := auth.NewManager(r, &log)
	return NewManager(r, a, &log), a
}

func loggedInManager(t *testing.T) (*Manager, *auth.Manager) {
	t.Helper()
	m, a := newTestManager(t)
	if _, err := a.Register(context.Background(), "a@x.com", "password1", "Alice"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return m, a
}

func validDraft() Draft {
	return Draft{
		Title:       "Team dinner",
		Description: "Yearly get-together",
		Date:        "2026-09-12",
		Time:        "19:30",
	}
}

func TestCreateRequiresAuthentication(t *testing.T) {
	m, _ := newTestManager(t)

	if _, err := m.Create(context.Background(), validDraft()); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("create err = %v, want ErrNotAuthenticated", err)
	}
	if len(m.List()) != 0 {
		t.Error("list grew despite rejected create")
	}
}

func TestCreateSetsCreatorAndEmptyParticipants(t *testing.T) {
	m, a := loggedInManager(t)

	ev, err := m.Create(context.Background(), validDraft())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ev.ID == "" || ev.CreatedAt == "" {
		t.Errorf("missing generated fields: %+v", ev)
	}
	if ev.CreatedBy != a.Current().ID {
		t.Errorf("createdBy = %s, want %s", ev.CreatedBy, a.Current().ID)
	}
	if len(ev.Participants) != 0 {
		t.Errorf("participants = %v, want empty", ev.Participants)
	}
	if ev.IsParticipating {
		t.Error("creator is not participating until they toggle")
	}
}

func TestCreateEmptyTitleRejected(t *testing.T) {
	m, _ := loggedInManager(t)

	draft := validDraft()
	draft.Title = ""
	if _, err := m.Create(context.Background(), draft); err == nil {
		t.Fatal("expected validation error for empty title")
	}
	if len(m.List()) != 0 {
		t.Error("list length changed despite rejected create")
	}
}

func TestCreateBadDateRejected(t *testing.T) {
	m, _ := loggedInManager(t)

	draft := validDraft()
	draft.Date = "12/09/2026"
	if _, err := m.Create(context.Background(), draft); err == nil {
		t.Fatal("expected validation error for non-ISO date")
	}
}

func TestDoubleToggleRestoresParticipants(t *testing.T) {
	m, _ := loggedInManager(t)
	ctx := context.Background()

	ev, err := m.Create(ctx, validDraft())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	original := append([]string{}, ev.Participants...)

	first, err := m.ToggleParticipation(ctx, ev.ID)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !first.IsParticipating || len(first.Participants) != 1 {
		t.Errorf("after first toggle: participating=%v participants=%v", first.IsParticipating, first.Participants)
	}

	second, err := m.ToggleParticipation(ctx, ev.ID)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if second.IsParticipating {
		t.Error("still participating after double toggle")
	}
	if !reflect.DeepEqual(second.Participants, original) {
		t.Errorf("participants = %v, want original %v", second.Participants, original)
	}
}

func TestToggleRequiresAuthentication(t *testing.T) {
	m, a := loggedInManager(t)
	ctx := context.Background()

	ev, err := m.Create(ctx, validDraft())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := a.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if _, err := m.ToggleParticipation(ctx, ev.ID); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("toggle err = %v, want ErrNotAuthenticated", err)
	}
}

func TestParticipantAppearsAtMostOnce(t *testing.T) {
	m, a := loggedInManager(t)
	ctx := context.Background()

	ev, err := m.Create(ctx, validDraft())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := m.ToggleParticipation(ctx, ev.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	got, err := m.Get(ev.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	count := 0
	for _, pid := range got.Participants {
		if pid == a.Current().ID {
			count++
		}
	}
	if count != 1 {
		t.Errorf("user appears %d times in participants, want 1", count)
	}
}

func TestUpdateMergesPartialFields(t *testing.T) {
	m, _ := loggedInManager(t)
	ctx := context.Background()

	ev, err := m.Create(ctx, validDraft())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	title := "Team dinner (rescheduled)"
	date := "2026-09-19"
	updated, err := m.Update(ctx, ev.ID, Patch{Title: &title, Date: &date})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != title || updated.Date != date {
		t.Errorf("merged fields wrong: %+v", updated)
	}
	if updated.Description != ev.Description || updated.Time != ev.Time {
		t.Errorf("unset fields changed: %+v", updated)
	}
}

func TestUpdateMissingEventFails(t *testing.T) {
	m, _ := loggedInManager(t)

	title := "x"
	if _, err := m.Update(context.Background(), "missing", Patch{Title: &title}); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("update err = %v, want ErrEventNotFound", err)
	}
}

func TestDeleteRemovesEvent(t *testing.T) {
	m, _ := loggedInManager(t)
	ctx := context.Background()

	ev, err := m.Create(ctx, validDraft())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := m.Delete(ctx, ev.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Get(ev.ID); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("get after delete err = %v, want ErrEventNotFound", err)
	}
}

func TestDeleteMissingEventFails(t *testing.T) {
	m, _ := loggedInManager(t)

	if err := m.Delete(context.Background(), "missing"); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("delete err = %v, want ErrEventNotFound", err)
	}
	if len(m.List()) != 0 {
		t.Error("list changed by failed delete")
	}
}

func TestParticipationFlagDerivedPerViewer(t *testing.T) {
	m, a := loggedInManager(t)
	ctx := context.Background()

	ev, err := m.Create(ctx, validDraft())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := m.ToggleParticipation(ctx, ev.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	got, err := m.Get(ev.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.IsParticipating {
		t.Error("expected participating flag for the toggling user")
	}

	// Anonymous viewers never see a participation flag.
	if err := a.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	got, err = m.Get(ev.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.IsParticipating {
		t.Error("anonymous viewer must not see a participation flag")
	}
	if len(got.Participants) != 1 {
		t.Errorf("persisted participants changed on logout: %v", got.Participants)
	}
}

func TestRefreshReloadsPersistedList(t *testing.T) {
	m, _ := loggedInManager(t)
	ctx := context.Background()

	if _, err := m.Create(ctx, validDraft()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := m.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(m.List()) != 1 {
		t.Errorf("list after refresh = %d events, want 1", len(m.List()))
	}
}
