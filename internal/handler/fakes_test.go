package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/GoArmGo/ContactsApp/internal/core/ports"
	"github.com/GoArmGo/ContactsApp/internal/domain"
	"github.com/jmoiron/sqlx"
)

type fakeSession struct {
	mu     sync.Mutex
	closed bool
}

func (s *fakeSession) Tx(context.Context) (*sqlx.Tx, error) { return nil, errors.New("not used") }
func (s *fakeSession) Commit() error                        { return nil }
func (s *fakeSession) Rollback() error                      { return nil }
func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type fakeProvider struct {
	mu       sync.Mutex
	sessions []*fakeSession
	checkErr error
}

func (p *fakeProvider) CheckConnection(context.Context) error { return p.checkErr }

func (p *fakeProvider) AcquireSession() ports.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := &fakeSession{}
	p.sessions = append(p.sessions, s)
	return s
}

func (p *fakeProvider) allClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.sessions {
		if !s.closed {
			return false
		}
	}
	return true
}

type fakeContacts struct {
	nextID   int64
	contacts map[int64]domain.Contact
	err      error
	lastRef  domain.Date
	lastSkip int
	lastLim  int
}

func newFakeContacts() *fakeContacts {
	return &fakeContacts{contacts: map[int64]domain.Contact{}}
}

func (f *fakeContacts) sorted() []domain.Contact {
	out := make([]domain.Contact, 0, len(f.contacts))
	for _, c := range f.contacts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeContacts) CreateContact(_ context.Context, _ ports.Session, fields domain.ContactFields) (*domain.Contact, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, c := range f.contacts {
		if c.Email == fields.Email {
			return nil, &domain.DuplicateError{Field: "email", Value: fields.Email}
		}
	}
	f.nextID++
	c := fields.Contact()
	c.ID = f.nextID
	f.contacts[c.ID] = c
	return &c, nil
}

func (f *fakeContacts) ListContacts(_ context.Context, _ ports.Session, skip, limit int) ([]domain.Contact, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastSkip, f.lastLim = skip, limit
	all := f.sorted()
	if skip > len(all) {
		skip = len(all)
	}
	end := skip + limit
	if end > len(all) {
		end = len(all)
	}
	return all[skip:end], nil
}

func (f *fakeContacts) GetContact(_ context.Context, _ ports.Session, id int64) (*domain.Contact, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.contacts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (f *fakeContacts) UpdateContact(_ context.Context, _ ports.Session, id int64, fields domain.ContactFields) (*domain.Contact, error) {
	if _, ok := f.contacts[id]; !ok {
		return nil, domain.ErrNotFound
	}
	c := fields.Contact()
	c.ID = id
	f.contacts[id] = c
	return &c, nil
}

func (f *fakeContacts) DeleteContact(_ context.Context, _ ports.Session, id int64) (*domain.Contact, error) {
	c, ok := f.contacts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(f.contacts, id)
	return &c, nil
}

func (f *fakeContacts) SearchContacts(_ context.Context, _ ports.Session, filter domain.ContactFilter) ([]domain.Contact, error) {
	var out []domain.Contact
	for _, c := range f.sorted() {
		if filter.Name != "" && c.FirstName != filter.Name && c.LastName != filter.Name {
			continue
		}
		if filter.Email != "" && c.Email != filter.Email {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeContacts) UpcomingBirthdays(_ context.Context, _ ports.Session, ref domain.Date) ([]domain.Contact, error) {
	f.lastRef = ref
	return f.sorted(), nil
}

type fakeAuth struct {
	users []domain.User
	err   error
}

func (f *fakeAuth) FindByUsername(_ context.Context, _ ports.Session, username string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAuth) Authenticate(ctx context.Context, sess ports.Session, username, password string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, err := f.FindByUsername(ctx, sess, username)
	if err != nil || u.PasswordHash != "hashed:"+password {
		return nil, domain.ErrAuthFailure
	}
	return u, nil
}

func (f *fakeAuth) Register(_ context.Context, _ ports.Session, reg domain.Registration) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == reg.Email {
			return nil, &domain.DuplicateError{Field: "email", Value: reg.Email}
		}
		if u.Username == reg.Username {
			return nil, &domain.DuplicateError{Field: "username", Value: reg.Username}
		}
	}
	u := domain.User{
		ID:           int64(len(f.users) + 1),
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: "hashed:" + reg.Password,
	}
	f.users = append(f.users, u)
	return &u, nil
}

func (f *fakeAuth) IssueToken(user *domain.User) (*domain.Token, error) {
	return &domain.Token{
		AccessToken: "token-for-" + user.Username,
		TokenType:   "bearer",
		ExpiresAt:   time.Now().Add(30 * time.Minute),
	}, nil
}

func (f *fakeAuth) UserFromToken(ctx context.Context, sess ports.Session, token string) (*domain.User, error) {
	const prefix = "token-for-"
	if len(token) <= len(prefix) || token[:len(prefix)] != prefix {
		return nil, domain.ErrAuthFailure
	}
	u, err := f.FindByUsername(ctx, sess, token[len(prefix):])
	if err != nil {
		return nil, domain.ErrAuthFailure
	}
	return u, nil
}

type testServer struct {
	handler  http.Handler
	contacts *fakeContacts
	auth     *fakeAuth
	provider *fakeProvider
}

func newTestServer() *testServer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	v := NewValidator()
	ts := &testServer{
		contacts: newFakeContacts(),
		auth:     &fakeAuth{},
		provider: &fakeProvider{},
	}

	contactHandler := NewContactHandler(ts.contacts, v, logger)
	contactHandler.now = func() time.Time { return time.Date(2026, time.October, 15, 23, 30, 0, 0, time.UTC) }

	ts.handler = NewRouter(RouterConfig{
		Contacts:       contactHandler,
		Auth:           NewAuthHandler(ts.auth, v, logger),
		Health:         NewHealthHandler(ts.provider, logger),
		Sessions:       ts.provider,
		RequestTimeout: 5 * time.Second,
		Logger:         logger,
	})
	return ts
}
