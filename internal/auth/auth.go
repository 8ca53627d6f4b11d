package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"eventease/internal/model"
	"eventease/internal/repo"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateEmail     = errors.New("email already registered")
)

// State is the authentication lifecycle: Unknown until Restore runs,
// Loading while a transition is in flight, then Authenticated or Anonymous.
type State int

const (
	StateUnknown State = iota
	StateLoading
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Manager holds the process-wide current user identity and is its sole
// writer. Identity changes are pushed to registered listeners after the
// transition commits.
type Manager struct {
	repo repo.Repository
	log  *zerolog.Logger

	mu        sync.Mutex
	state     State
	user      *model.User
	listeners []func(*model.User)

	// records serializes every load-check-save cycle on the persisted
	// account records. Handlers run on parallel goroutines; without this
	// two overlapping registrations would both load the same snapshot and
	// the last save would drop the other account.
	records sync.Mutex
}

func NewManager(r repo.Repository, log *zerolog.Logger) *Manager {
	return &Manager{
		repo:  r,
		log:   log,
		state: StateUnknown,
	}
}

// OnChange registers a listener invoked after every identity transition
// (login, registration, logout, restore). Listeners run outside the
// manager's lock and may call back into it.
func (m *Manager) OnChange(fn func(*model.User)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Current returns a copy of the authenticated user, or nil when anonymous.
func (m *Manager) Current() *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Restore loads the persisted current-user record on process start and
// settles the state to Authenticated or Anonymous.
func (m *Manager) Restore(ctx context.Context) error {
	m.setState(StateLoading)

	u, err := m.repo.LoadCurrentUser(ctx)
	if err != nil {
		m.commit(nil)
		return fmt.Errorf("failed to restore auth state: %w", err)
	}
	m.commit(u)

	if u != nil {
		m.log.Info().Str("user_id", u.ID).Msg("restored authenticated session")
	} else {
		m.log.Info().Msg("no persisted session, starting anonymous")
	}
	return nil
}

// Login matches email case-sensitively against the registered-user list and
// verifies the password against the stored hash. On success the user is
// marked logged-in and persisted as the current user.
func (m *Manager) Login(ctx context.Context, email, password string) (*model.User, error) {
	m.setState(StateLoading)

	m.records.Lock()
	defer m.records.Unlock()

	users, err := m.repo.LoadRegisteredUsers(ctx)
	if err != nil {
		m.commit(m.Current())
		return nil, err
	}

	var match *model.User
	for i := range users {
		if users[i].Email == email {
			match = &users[i]
			break
		}
	}
	if match == nil {
		m.commit(nil)
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(match.PasswordHash), []byte(password)); err != nil {
		m.commit(nil)
		m.log.Warn().Str("email", email).Msg("login rejected: password mismatch")
		return nil, ErrInvalidCredentials
	}

	logged := match.Public()
	logged.IsLoggedIn = true
	if err := m.repo.SaveCurrentUser(ctx, &logged); err != nil {
		m.commit(nil)
		return nil, err
	}

	m.commit(&logged)
	m.log.Info().Str("user_id", logged.ID).Msg("user logged in")
	out := logged
	return &out, nil
}

// Register creates a new account. It fails with ErrDuplicateEmail when the
// email is already registered, leaving the registered list untouched.
func (m *Manager) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	m.setState(StateLoading)

	m.records.Lock()
	defer m.records.Unlock()

	users, err := m.repo.LoadRegisteredUsers(ctx)
	if err != nil {
		m.commit(m.Current())
		return nil, err
	}
	for i := range users {
		if users[i].Email == email {
			m.commit(nil)
			return nil, ErrDuplicateEmail
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		m.commit(nil)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		IsLoggedIn:   true,
		PasswordHash: string(hash),
	}

	if err := m.repo.SaveRegisteredUsers(ctx, append(users, newUser)); err != nil {
		m.commit(nil)
		return nil, err
	}
	public := newUser.Public()
	if err := m.repo.SaveCurrentUser(ctx, &public); err != nil {
		m.commit(nil)
		return nil, err
	}

	m.commit(&public)
	m.log.Info().Str("user_id", newUser.ID).Str("email", email).Msg("user registered")
	out := public
	return &out, nil
}

// Logout clears the persisted current-user record. Idempotent.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.repo.RemoveCurrentUser(ctx); err != nil {
		return err
	}
	m.commit(nil)
	m.log.Info().Msg("user logged out")
	return nil
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// commit settles the identity and state, then notifies listeners outside
// the lock.
func (m *Manager) commit(u *model.User) {
	m.mu.Lock()
	m.user = u
	if u != nil {
		m.state = StateAuthenticated
	} else {
		m.state = StateAnonymous
	}
	listeners := make([]func(*model.User), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(u)
	}
}
