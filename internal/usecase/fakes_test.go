package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/GoArmGo/ContactsApp/internal/core/ports"
	"github.com/GoArmGo/ContactsApp/internal/domain"
	"github.com/GoArmGo/ContactsApp/internal/messaging/payloads"
	"github.com/jmoiron/sqlx"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSession struct{ closed bool }

func (s *fakeSession) Tx(context.Context) (*sqlx.Tx, error) { return nil, errors.New("not used") }
func (s *fakeSession) Commit() error                        { return nil }
func (s *fakeSession) Rollback() error                      { return nil }
func (s *fakeSession) Close() error                         { s.closed = true; return nil }

var _ ports.Session = (*fakeSession)(nil)

type fakeContactStorage struct {
	nextID   int64
	contacts map[int64]domain.Contact
	err      error

	lastFilter domain.ContactFilter
	lastRef    domain.Date
}

func newFakeContactStorage() *fakeContactStorage {
	return &fakeContactStorage{contacts: map[int64]domain.Contact{}}
}

func (f *fakeContactStorage) Create(_ context.Context, _ ports.Session, fields domain.ContactFields) (*domain.Contact, error) {
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

func (f *fakeContactStorage) sorted() []domain.Contact {
	out := make([]domain.Contact, 0, len(f.contacts))
	for _, c := range f.contacts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeContactStorage) List(_ context.Context, _ ports.Session, skip, limit int) ([]domain.Contact, error) {
	all := f.sorted()
	if skip >= len(all) {
		return []domain.Contact{}, nil
	}
	end := skip + limit
	if end > len(all) {
		end = len(all)
	}
	return all[skip:end], nil
}

func (f *fakeContactStorage) GetByID(_ context.Context, _ ports.Session, id int64) (*domain.Contact, error) {
	c, ok := f.contacts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (f *fakeContactStorage) Update(_ context.Context, _ ports.Session, id int64, fields domain.ContactFields) (*domain.Contact, error) {
	if _, ok := f.contacts[id]; !ok {
		return nil, domain.ErrNotFound
	}
	c := fields.Contact()
	c.ID = id
	f.contacts[id] = c
	return &c, nil
}

func (f *fakeContactStorage) Delete(_ context.Context, _ ports.Session, id int64) (*domain.Contact, error) {
	c, ok := f.contacts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(f.contacts, id)
	return &c, nil
}

// Search и UpcomingBirthdays только запоминают аргументы: фильтрация — дело SQL.
func (f *fakeContactStorage) Search(_ context.Context, _ ports.Session, filter domain.ContactFilter) ([]domain.Contact, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastFilter = filter
	return f.sorted(), nil
}

func (f *fakeContactStorage) UpcomingBirthdays(_ context.Context, _ ports.Session, ref domain.Date) ([]domain.Contact, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastRef = ref
	return f.sorted(), nil
}

type fakePublisher struct {
	events []payloads.ContactEvent
	err    error
}

func (p *fakePublisher) PublishContactEvent(_ context.Context, ev payloads.ContactEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

type fakeUserStorage struct {
	users     []domain.User
	createErr error
	creates   int
}

func (f *fakeUserStorage) FindByUsername(_ context.Context, _ ports.Session, username string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserStorage) FindByEmail(_ context.Context, _ ports.Session, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserStorage) Create(_ context.Context, _ ports.Session, user *domain.User) error {
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	user.ID = int64(len(f.users) + 1)
	user.CreatedAt = time.Now()
	f.users = append(f.users, *user)
	return nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (fakeHasher) Check(password, hash string) bool     { return hash == "hashed:"+password }

type fakeTokens struct {
	lastTTL time.Duration
}

func (f *fakeTokens) Issue(subject string, ttl time.Duration) (string, time.Time, error) {
	f.lastTTL = ttl
	return "token-for-" + subject, time.Now().Add(ttl), nil
}

func (f *fakeTokens) Subject(token string) (string, error) {
	if !strings.HasPrefix(token, "token-for-") {
		return "", errors.New("bad token")
	}
	return strings.TrimPrefix(token, "token-for-"), nil
}
