package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GoArmGo/ContactsApp/internal/core/ports"
	"github.com/GoArmGo/ContactsApp/internal/database/client"
	"github.com/GoArmGo/ContactsApp/internal/domain"
)

const contactColumns = `id, first_name, last_name, email, phone, birthday, additional_info`

// ContactStorage реализует ports.ContactStorage поверх sqlx.
// Пишущие операции фиксируют транзакцию сессии сами; при ошибке — откат.
type ContactStorage struct {
	logger *slog.Logger
}

func NewContactStorage(logger *slog.Logger) *ContactStorage {
	return &ContactStorage{logger: logger}
}

// Create сохраняет новый контакт; id назначает бд.
func (s *ContactStorage) Create(ctx context.Context, sess ports.Session, fields domain.ContactFields) (*domain.Contact, error) {
	const op = "create contact"
	start := time.Now()

	tx, err := sess.Tx(ctx)
	if err != nil {
		return nil, s.abort(sess, op, fields.Email, err)
	}

	contact := fields.Contact()
	query := `
	INSERT INTO contacts (first_name, last_name, email, phone, birthday, additional_info)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id
	`
	err = tx.QueryRowxContext(ctx, query,
		contact.FirstName, contact.LastName, contact.Email, contact.Phone, contact.Birthday, contact.AdditionalInfo,
	).Scan(&contact.ID)
	if err != nil {
		return nil, s.abort(sess, op, fields.Email, err)
	}

	if err := sess.Commit(); err != nil {
		return nil, s.abort(sess, op, fields.Email, err)
	}

	s.logger.Info("contact created",
		"id", contact.ID,
		"name", contact.FirstName+" "+contact.LastName,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &contact, nil
}

// List возвращает страницу контактов в порядке возрастания id.
func (s *ContactStorage) List(ctx context.Context, sess ports.Session, skip, limit int) ([]domain.Contact, error) {
	const op = "list contacts"
	start := time.Now()

	tx, err := sess.Tx(ctx)
	if err != nil {
		return nil, s.readFailure(op, err)
	}

	query := `SELECT ` + contactColumns + ` FROM contacts ORDER BY id LIMIT $1 OFFSET $2`

	contacts := []domain.Contact{}
	if err := tx.SelectContext(ctx, &contacts, query, limit, skip); err != nil {
		return nil, s.readFailure(op, err, "skip", skip, "limit", limit)
	}

	s.logger.Info("retrieved contacts",
		"skip", skip,
		"limit", limit,
		"count", len(contacts),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return contacts, nil
}

// GetByID получает контакт по id; domain.ErrNotFound, если его нет.
func (s *ContactStorage) GetByID(ctx context.Context, sess ports.Session, id int64) (*domain.Contact, error) {
	const op = "get contact"
	start := time.Now()

	tx, err := sess.Tx(ctx)
	if err != nil {
		return nil, s.readFailure(op, err, "id", id)
	}

	var contact domain.Contact
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`

	if err := tx.GetContext(ctx, &contact, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("no contact found", "id", id)
			return nil, domain.ErrNotFound
		}
		return nil, s.readFailure(op, err, "id", id)
	}

	s.logger.Info("contact retrieved",
		"id", contact.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &contact, nil
}

// Update полностью заменяет изменяемые поля контакта.
func (s *ContactStorage) Update(ctx context.Context, sess ports.Session, id int64, fields domain.ContactFields) (*domain.Contact, error) {
	const op = "update contact"
	start := time.Now()

	tx, err := sess.Tx(ctx)
	if err != nil {
		return nil, s.abort(sess, op, fields.Email, err)
	}

	query := `
	UPDATE contacts
	SET first_name = $1, last_name = $2, email = $3, phone = $4, birthday = $5, additional_info = $6
	WHERE id = $7
	RETURNING ` + contactColumns

	var contact domain.Contact
	err = tx.QueryRowxContext(ctx, query,
		fields.FirstName, fields.LastName, fields.Email, fields.Phone, fields.Birthday, fields.AdditionalInfo, id,
	).StructScan(&contact)
	if errors.Is(err, sql.ErrNoRows) {
		if rbErr := sess.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed", "op", op, "error", rbErr)
		}
		s.logger.Warn("no contact found", "id", id)
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, s.abort(sess, op, fields.Email, err)
	}

	if err := sess.Commit(); err != nil {
		return nil, s.abort(sess, op, fields.Email, err)
	}

	s.logger.Info("contact updated",
		"id", contact.ID,
		"name", contact.FirstName+" "+contact.LastName,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &contact, nil
}

// Delete удаляет контакт и возвращает его состояние до удаления.
func (s *ContactStorage) Delete(ctx context.Context, sess ports.Session, id int64) (*domain.Contact, error) {
	const op = "delete contact"
	start := time.Now()

	tx, err := sess.Tx(ctx)
	if err != nil {
		return nil, s.abort(sess, op, "", err)
	}

	var contact domain.Contact
	query := `DELETE FROM contacts WHERE id = $1 RETURNING ` + contactColumns

	err = tx.QueryRowxContext(ctx, query, id).StructScan(&contact)
	if errors.Is(err, sql.ErrNoRows) {
		if rbErr := sess.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed", "op", op, "error", rbErr)
		}
		s.logger.Warn("no contact found", "id", id)
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, s.abort(sess, op, "", err)
	}

	if err := sess.Commit(); err != nil {
		return nil, s.abort(sess, op, "", err)
	}

	s.logger.Info("contact deleted",
		"id", contact.ID,
		"name", contact.FirstName+" "+contact.LastName,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &contact, nil
}

// Search ищет контакты по подстроке имени (first или last) и/или email без учёта регистра.
// Условия объединяются через AND; без условий возвращаются все контакты.
func (s *ContactStorage) Search(ctx context.Context, sess ports.Session, filter domain.ContactFilter) ([]domain.Contact, error) {
	const op = "search contacts"
	start := time.Now()

	tx, err := sess.Tx(ctx)
	if err != nil {
		return nil, s.readFailure(op, err)
	}

	query, args := buildSearchQuery(filter)

	contacts := []domain.Contact{}
	if err := tx.SelectContext(ctx, &contacts, query, args...); err != nil {
		return nil, s.readFailure(op, err, "name", filter.Name, "email", filter.Email)
	}

	s.logger.Info("found contacts matching criteria",
		"name", filter.Name,
		"email", filter.Email,
		"count", len(contacts),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return contacts, nil
}

// UpcomingBirthdays возвращает контакты с датой рождения в [ref, ref+7 дней].
// Сравнивается полная дата, включая год.
func (s *ContactStorage) UpcomingBirthdays(ctx context.Context, sess ports.Session, ref domain.Date) ([]domain.Contact, error) {
	const op = "upcoming birthdays"
	start := time.Now()

	tx, err := sess.Tx(ctx)
	if err != nil {
		return nil, s.readFailure(op, err)
	}

	from, to := domain.BirthdayWindow(ref)
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE birthday BETWEEN $1 AND $2 ORDER BY birthday, id`

	contacts := []domain.Contact{}
	if err := tx.SelectContext(ctx, &contacts, query, from, to); err != nil {
		return nil, s.readFailure(op, err, "from", from.String(), "to", to.String())
	}

	s.logger.Info("found contacts with upcoming birthdays",
		"from", from.String(),
		"to", to.String(),
		"count", len(contacts),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return contacts, nil
}

func buildSearchQuery(filter domain.ContactFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if filter.Name != "" {
		args = append(args, likePattern(filter.Name))
		n := len(args)
		conds = append(conds, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d)", n, n))
	}
	if filter.Email != "" {
		args = append(args, likePattern(filter.Email))
		conds = append(conds, fmt.Sprintf("email ILIKE $%d", len(args)))
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + contactColumns + ` FROM contacts`)
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY id")

	return b.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern превращает строку в шаблон "содержит" для ILIKE.
// Обратный слеш — escape-символ LIKE в PostgreSQL по умолчанию.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// abort откатывает сессию и переводит ошибку в доменную.
func (s *ContactStorage) abort(sess ports.Session, op, email string, err error) error {
	if rbErr := sess.Rollback(); rbErr != nil {
		s.logger.Error("rollback failed", "op", op, "error", rbErr)
	}

	if client.IsUniqueViolation(err) {
		s.logger.Warn("contact email already registered", "op", op, "email", email,
			"constraint", client.ConstraintName(err))
		return &domain.DuplicateError{Field: "email", Value: email}
	}

	s.logger.Error("contact write failed", "op", op, "error", err)
	return &domain.StoreError{Op: op, Err: err}
}

func (s *ContactStorage) readFailure(op string, err error, attrs ...any) error {
	s.logger.Error("contact read failed", append([]any{"op", op, "error", err}, attrs...)...)
	return &domain.StoreError{Op: op, Err: err}
}
