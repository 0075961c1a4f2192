package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/GoArmGo/ContactsApp/internal/domain"
	"github.com/go-playground/validator/v10"
)

// errorResponse — тело ответа с ошибкой.
type errorResponse struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// respondWithJSON — отправляет JSON-ответ клиенту.
func respondWithJSON(w http.ResponseWriter, code int, payload any, logger *slog.Logger) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error("failed to marshal JSON response", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(response); err != nil {
		logger.Error("failed to write HTTP response", "error", err)
	}
}

// respondWithError — отправляет JSON-ответ с ошибкой.
func respondWithError(w http.ResponseWriter, code int, message string, logger *slog.Logger) {
	respondWithJSON(w, code, errorResponse{Message: message}, logger)
}

func respondWithValidationError(w http.ResponseWriter, verr *domain.ValidationError, logger *slog.Logger) {
	respondWithJSON(w, http.StatusBadRequest, errorResponse{
		Message: verr.Error(),
		Fields:  verr.Fields,
	}, logger)
}

// respondWithInternalError скрывает детали сбоя хранилища от клиента.
func respondWithInternalError(w http.ResponseWriter, logger *slog.Logger) {
	respondWithError(w, http.StatusInternalServerError, "Internal server error", logger)
}

// Validator проверяет входные структуры по тегам validate.
// Имена полей в ошибках берутся из json-тегов.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	// domain.Date — структура; для тегов она выглядит как строка YYYY-MM-DD (пустая у нулевой даты)
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(domain.Date); ok {
			return d.String()
		}
		return nil
	}, domain.Date{})
	return &Validator{v: v}
}

// Struct возвращает *domain.ValidationError, если s не проходит проверку.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate request: %w", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return &domain.ValidationError{Fields: fields}
}

// decodeJSON читает тело запроса в dst. Ошибка разбора — *domain.ValidationError.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return domain.NewValidationError(typeErr.Field, "type")
		}
		return domain.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	return nil
}
