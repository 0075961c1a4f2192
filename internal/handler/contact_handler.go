package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/GoArmGo/ContactsApp/internal/domain"
	"github.com/GoArmGo/ContactsApp/internal/usecase"
	"github.com/go-chi/chi/v5"
)

const (
	defaultSkip  = 0
	defaultLimit = 10
)

// ContactHandler — обработчик HTTP-запросов для работы с контактами.
type ContactHandler struct {
	contactUseCase usecase.ContactUseCase
	validator      *Validator
	logger         *slog.Logger
	now            func() time.Time
}

// NewContactHandler создаёт новый экземпляр ContactHandler.
func NewContactHandler(uc usecase.ContactUseCase, v *Validator, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{
		contactUseCase: uc,
		validator:      v,
		logger:         logger,
		now:            time.Now,
	}
}

// Routes монтируется под /contacts.
func (h *ContactHandler) Routes(r chi.Router) {
	r.Post("/", h.CreateContact)
	r.Get("/", h.ListContacts)
	r.Get("/search", h.SearchContacts)
	r.Get("/birthdays", h.UpcomingBirthdays)
	r.Get("/{id}", h.GetContact)
	r.Put("/{id}", h.UpdateContact)
	r.Delete("/{id}", h.DeleteContact)
}

// CreateContact — POST /contacts/
func (h *ContactHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	fields, ok := h.readFields(w, r)
	if !ok {
		return
	}

	contact, err := h.contactUseCase.CreateContact(r.Context(), sessionFrom(r.Context()), fields)
	if err != nil {
		h.writeError(w, err, "")
		return
	}
	respondWithJSON(w, http.StatusOK, contact, h.logger)
}

// ListContacts — GET /contacts/?skip=&limit=
func (h *ContactHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	skip, err := intQuery(r, "skip", defaultSkip)
	if err != nil || skip < 0 {
		respondWithValidationError(w, domain.NewValidationError("skip", "non-negative integer"), h.logger)
		return
	}
	limit, err := intQuery(r, "limit", defaultLimit)
	if err != nil || limit <= 0 {
		respondWithValidationError(w, domain.NewValidationError("limit", "positive integer"), h.logger)
		return
	}

	contacts, err := h.contactUseCase.ListContacts(r.Context(), sessionFrom(r.Context()), skip, limit)
	if err != nil {
		h.writeError(w, err, "")
		return
	}
	h.respondWithList(w, contacts)
}

// GetContact — GET /contacts/{id}
func (h *ContactHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	contact, err := h.contactUseCase.GetContact(r.Context(), sessionFrom(r.Context()), id)
	if err != nil {
		h.writeError(w, err, fmt.Sprintf("Contact with ID %d not found", id))
		return
	}
	respondWithJSON(w, http.StatusOK, contact, h.logger)
}

// UpdateContact — PUT /contacts/{id}, полная замена полей.
func (h *ContactHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	fields, ok := h.readFields(w, r)
	if !ok {
		return
	}

	contact, err := h.contactUseCase.UpdateContact(r.Context(), sessionFrom(r.Context()), id, fields)
	if err != nil {
		h.writeError(w, err, "Contact not found")
		return
	}
	respondWithJSON(w, http.StatusOK, contact, h.logger)
}

// DeleteContact — DELETE /contacts/{id}, возвращает удалённый контакт.
func (h *ContactHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	contact, err := h.contactUseCase.DeleteContact(r.Context(), sessionFrom(r.Context()), id)
	if err != nil {
		h.writeError(w, err, "Contact not found")
		return
	}
	respondWithJSON(w, http.StatusOK, contact, h.logger)
}

// SearchContacts — GET /contacts/search/?name=&email=
func (h *ContactHandler) SearchContacts(w http.ResponseWriter, r *http.Request) {
	filter := domain.ContactFilter{
		Name:  r.URL.Query().Get("name"),
		Email: r.URL.Query().Get("email"),
	}

	contacts, err := h.contactUseCase.SearchContacts(r.Context(), sessionFrom(r.Context()), filter)
	if err != nil {
		h.writeError(w, err, "")
		return
	}
	h.respondWithList(w, contacts)
}

// UpcomingBirthdays — GET /contacts/birthdays/?date=YYYY-MM-DD (по умолчанию сегодня по UTC)
func (h *ContactHandler) UpcomingBirthdays(w http.ResponseWriter, r *http.Request) {
	ref := domain.DateOf(h.now().UTC())
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := domain.ParseDate(raw)
		if err != nil {
			respondWithValidationError(w, domain.NewValidationError("date", "YYYY-MM-DD"), h.logger)
			return
		}
		ref = parsed
	}

	contacts, err := h.contactUseCase.UpcomingBirthdays(r.Context(), sessionFrom(r.Context()), ref)
	if err != nil {
		h.writeError(w, err, "")
		return
	}
	h.respondWithList(w, contacts)
}

func (h *ContactHandler) readFields(w http.ResponseWriter, r *http.Request) (domain.ContactFields, bool) {
	var fields domain.ContactFields
	err := decodeJSON(r, &fields)
	if err == nil {
		err = h.validator.Struct(fields)
	}
	if err != nil {
		h.writeError(w, err, "")
		return fields, false
	}
	return fields, true
}

func (h *ContactHandler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithValidationError(w, domain.NewValidationError("id", "integer"), h.logger)
		return 0, false
	}
	return id, true
}

// writeError переводит доменную ошибку в HTTP-ответ.
func (h *ContactHandler) writeError(w http.ResponseWriter, err error, notFoundMessage string) {
	var (
		verr *domain.ValidationError
		dup  *domain.DuplicateError
	)
	switch {
	case errors.As(err, &verr):
		respondWithValidationError(w, verr, h.logger)
	case errors.As(err, &dup):
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Email %s already registered", dup.Value), h.logger)
	case errors.Is(err, domain.ErrNotFound) && notFoundMessage != "":
		respondWithError(w, http.StatusNotFound, notFoundMessage, h.logger)
	default:
		h.logger.Error("contact request failed", "error", err)
		respondWithInternalError(w, h.logger)
	}
}

// respondWithList всегда отдаёт массив, даже пустой.
func (h *ContactHandler) respondWithList(w http.ResponseWriter, contacts []domain.Contact) {
	if contacts == nil {
		contacts = []domain.Contact{}
	}
	respondWithJSON(w, http.StatusOK, contacts, h.logger)
}

func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
