package repo

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"eventease/internal/model"
)

func newTestRepository(t *testing.T) Repository {
	t.Helper()
	log := zerolog.Nop()
	r, err := NewRepository(filepath.Join(t.TempDir(), "kv.db"), &log)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func floatPtr(f float64) *float64 { return &f }

func TestEventsRoundTrip(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	events := []model.Event{
		{
			ID:           "e1",
			Title:        "Team dinner",
			Description:  "Yearly get-together",
			Date:         "2026-09-12",
			Time:         "19:30",
			Location:     &model.Location{Name: "Lyon", Latitude: floatPtr(45.764), Longitude: floatPtr(4.8357)},
			CreatedBy:    "u1",
			CreatedAt:    "2026-08-01T10:00:00Z",
			Participants: []string{"u1", "u2"},
		},
		{
			ID:           "e2",
			Title:        "Standup",
			Description:  "Daily sync",
			Date:         "2026-09-13",
			Time:         "09:00",
			CreatedBy:    "u2",
			CreatedAt:    "2026-08-02T08:00:00Z",
			Participants: []string{},
		},
	}

	if err := r.SaveEvents(ctx, events); err != nil {
		t.Fatalf("SaveEvents: %v", err)
	}
	got, err := r.LoadEvents(ctx)
	if err != nil {
		t.Fatalf("LoadEvents: %v", err)
	}
	if !reflect.DeepEqual(got, events) {
		t.Errorf("round-trip mismatch:\n got %+v\nwant %+v", got, events)
	}
}

func TestLoadAbsentRecords(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	u, err := r.LoadCurrentUser(ctx)
	if err != nil {
		t.Fatalf("LoadCurrentUser: %v", err)
	}
	if u != nil {
		t.Errorf("expected absent current user, got %+v", u)
	}

	users, err := r.LoadRegisteredUsers(ctx)
	if err != nil {
		t.Fatalf("LoadRegisteredUsers: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("expected empty user list, got %d entries", len(users))
	}

	events, err := r.LoadEvents(ctx)
	if err != nil {
		t.Fatalf("LoadEvents: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected empty event list, got %d entries", len(events))
	}
}

func TestCurrentUserStripsCredentialHash(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	u := &model.User{ID: "u1", Email: "a@x.com", Name: "Alice", IsLoggedIn: true, PasswordHash: "secret-hash"}
	if err := r.SaveCurrentUser(ctx, u); err != nil {
		t.Fatalf("SaveCurrentUser: %v", err)
	}

	got, err := r.LoadCurrentUser(ctx)
	if err != nil {
		t.Fatalf("LoadCurrentUser: %v", err)
	}
	if got == nil {
		t.Fatal("expected current user, got absent")
	}
	if got.PasswordHash != "" {
		t.Errorf("current-user record must not carry the credential hash, got %q", got.PasswordHash)
	}
	if got.ID != "u1" || got.Email != "a@x.com" || !got.IsLoggedIn {
		t.Errorf("unexpected current user: %+v", got)
	}
}

func TestRemoveCurrentUserIdempotent(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	if err := r.SaveCurrentUser(ctx, &model.User{ID: "u1", Email: "a@x.com", Name: "Alice"}); err != nil {
		t.Fatalf("SaveCurrentUser: %v", err)
	}
	if err := r.RemoveCurrentUser(ctx); err != nil {
		t.Fatalf("RemoveCurrentUser: %v", err)
	}
	// Removing an absent key is not an error.
	if err := r.RemoveCurrentUser(ctx); err != nil {
		t.Fatalf("RemoveCurrentUser (absent): %v", err)
	}
	got, err := r.LoadCurrentUser(ctx)
	if err != nil {
		t.Fatalf("LoadCurrentUser: %v", err)
	}
	if got != nil {
		t.Errorf("expected absent current user after remove, got %+v", got)
	}
}

func TestClearAllWipesEveryRecord(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	if err := r.SaveCurrentUser(ctx, &model.User{ID: "u1", Email: "a@x.com", Name: "Alice"}); err != nil {
		t.Fatalf("SaveCurrentUser: %v", err)
	}
	if err := r.SaveRegisteredUsers(ctx, []model.User{{ID: "u1", Email: "a@x.com", Name: "Alice"}}); err != nil {
		t.Fatalf("SaveRegisteredUsers: %v", err)
	}
	if err := r.SaveEvents(ctx, []model.Event{{ID: "e1", Title: "t", Participants: []string{}}}); err != nil {
		t.Fatalf("SaveEvents: %v", err)
	}

	if err := r.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}

	if u, _ := r.LoadCurrentUser(ctx); u != nil {
		t.Errorf("current user survived ClearAll: %+v", u)
	}
	if users, _ := r.LoadRegisteredUsers(ctx); len(users) != 0 {
		t.Errorf("registered users survived ClearAll: %d", len(users))
	}
	if events, _ := r.LoadEvents(ctx); len(events) != 0 {
		t.Errorf("events survived ClearAll: %d", len(events))
	}
}

func TestCorruptRecordTreatedAsAbsent(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	// Inject garbage directly under the events key.
	raw := r.(*repository)
	if _, err := raw.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)`, KeyEvents, "{not json"); err != nil {
		t.Fatalf("inject corrupt record: %v", err)
	}

	events, err := r.LoadEvents(ctx)
	if err != nil {
		t.Fatalf("LoadEvents on corrupt record must not fail: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected absent semantics for corrupt record, got %d events", len(events))
	}
}
