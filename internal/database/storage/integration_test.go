package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/GoArmGo/ContactsApp/internal/database/client"
	"github.com/GoArmGo/ContactsApp/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Требует живой PostgreSQL: CONTACTS_TEST_DATABASE_URL=postgres://...?sslmode=disable
func newIntegrationGateway(t *testing.T) *client.Client {
	t.Helper()
	dsn := os.Getenv("CONTACTS_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("CONTACTS_TEST_DATABASE_URL is not set")
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, client.ApplyMigrations(dsn, logger))

	db, err := sqlx.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`TRUNCATE contacts RESTART IDENTITY`)
	require.NoError(t, err)

	gw := client.NewFromDB(db, logger, 5*time.Second)
	require.NoError(t, gw.CheckConnection(context.Background()))
	return gw
}

func insert(t *testing.T, gw *client.Client, s *ContactStorage, first, last, email string, birthday domain.Date) domain.Contact {
	t.Helper()
	sess := gw.AcquireSession()
	defer sess.Close()

	c, err := s.Create(context.Background(), sess, domain.ContactFields{
		FirstName: first, LastName: last, Email: email, Phone: "000", Birthday: birthday,
	})
	require.NoError(t, err)
	return *c
}

func TestIntegration_ContactLifecycle(t *testing.T) {
	gw := newIntegrationGateway(t)
	s := NewContactStorage(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	created := insert(t, gw, s, "Anna", "Smith", "anna@acme.com", domain.NewDate(1990, time.March, 7))

	sess := gw.AcquireSession()
	defer sess.Close()

	got, err := s.GetByID(ctx, sess, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, *got)

	_, err = s.Update(ctx, sess, created.ID+1000, domain.ContactFields{
		FirstName: "X", LastName: "Y", Email: "x@y.z", Phone: "1", Birthday: domain.NewDate(2000, 1, 1),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := s.List(ctx, sess, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []domain.Contact{created}, all)

	deleted, err := s.Delete(ctx, sess, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, *deleted)

	_, err = s.GetByID(ctx, sess, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIntegration_DuplicateEmail(t *testing.T) {
	gw := newIntegrationGateway(t)
	s := NewContactStorage(slog.New(slog.NewTextHandler(io.Discard, nil)))

	insert(t, gw, s, "Anna", "Smith", "anna@acme.com", domain.NewDate(1990, 3, 7))

	sess := gw.AcquireSession()
	defer sess.Close()

	_, err := s.Create(context.Background(), sess, domain.ContactFields{
		FirstName: "Ann", LastName: "Other", Email: "anna@acme.com", Phone: "1", Birthday: domain.NewDate(1991, 1, 1),
	})
	var dup *domain.DuplicateError
	require.ErrorAs(t, err, &dup)

	all, err := s.List(context.Background(), sess, 0, 10)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestIntegration_SearchAndPagination(t *testing.T) {
	gw := newIntegrationGateway(t)
	s := NewContactStorage(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()
	bd := domain.NewDate(1985, time.June, 1)

	insert(t, gw, s, "Anna", "Smith", "anna@acme.com", bd)
	insert(t, gw, s, "Marianne", "Lee", "mlee@other.org", bd)
	insert(t, gw, s, "Bob", "Jones", "bob@acme.com", bd)
	insert(t, gw, s, "Carl", "Hanna", "carl@acme.com", bd)
	insert(t, gw, s, "Dora", "Ng", "dora@example.com", bd)

	sess := gw.AcquireSession()
	defer sess.Close()

	byName, err := s.Search(ctx, sess, domain.ContactFilter{Name: "ANN"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Anna", "Marianne", "Carl"}, firstNames(byName))

	both, err := s.Search(ctx, sess, domain.ContactFilter{Name: "ann", Email: "acme"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Anna", "Carl"}, firstNames(both))

	everyone, err := s.Search(ctx, sess, domain.ContactFilter{})
	require.NoError(t, err)
	assert.Len(t, everyone, 5)

	var pages []domain.Contact
	for skip := 0; skip < 6; skip += 2 {
		page, err := s.List(ctx, sess, skip, 2)
		require.NoError(t, err)
		pages = append(pages, page...)
	}
	assert.Equal(t, everyone, pages)
}

func TestIntegration_UpcomingBirthdaysWindow(t *testing.T) {
	gw := newIntegrationGateway(t)
	s := NewContactStorage(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ref := domain.NewDate(2026, time.October, 15)

	insert(t, gw, s, "Today", "A", "a@x.io", ref)
	insert(t, gw, s, "Edge", "B", "b@x.io", ref.AddDays(7))
	insert(t, gw, s, "Late", "C", "c@x.io", ref.AddDays(8))
	insert(t, gw, s, "Early", "D", "d@x.io", ref.AddDays(-1))
	insert(t, gw, s, "LastYear", "E", "e@x.io", domain.NewDate(2025, time.October, 16))

	sess := gw.AcquireSession()
	defer sess.Close()

	got, err := s.UpcomingBirthdays(context.Background(), sess, ref)
	require.NoError(t, err)
	assert.Equal(t, []string{"Today", "Edge"}, firstNames(got))
}

func firstNames(cs []domain.Contact) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.FirstName)
	}
	return out
}
