package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Dosada05/esports-bracket/services"
)

type jsonResponse map[string]interface{}

// responder carries what every handler needs to report errors.
type responder struct {
	logger       *slog.Logger
	exposeErrors bool
}

func newResponder(logger *slog.Logger, production bool) responder {
	return responder{logger: logger, exposeErrors: !production}
}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func (h responder) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string, extra jsonResponse) {
	env := jsonResponse{"message": message}
	for k, v := range extra {
		env[k] = v
	}
	if err := writeJSON(w, status, env, nil); err != nil {
		h.logger.Error("failed to write error response",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (h responder) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err))

	message := "the server encountered a problem and could not process your request"
	if h.exposeErrors {
		message = err.Error()
	}
	h.errorResponse(w, r, http.StatusInternalServerError, message, nil)
}

func (h responder) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	h.errorResponse(w, r, http.StatusBadRequest, err.Error(), nil)
}

func (h responder) failedValidationResponse(w http.ResponseWriter, r *http.Request, v *validator) {
	h.errorResponse(w, r, http.StatusBadRequest, services.ErrValidationFailed.Error(), jsonResponse{"errors": v.Errors})
}

func (h responder) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	h.errorResponse(w, r, http.StatusNotFound, err.Error(), nil)
}

func (h responder) unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	h.errorResponse(w, r, http.StatusUnauthorized, message, nil)
}

// mapServiceErrorToHTTP translates service errors into responses.
func (h responder) mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrTournamentNotFound),
		errors.Is(err, services.ErrUserNotFound):
		h.notFoundResponse(w, r, err)

	// Business rules and validation.
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrRegistrationNotOpen),
		errors.Is(err, services.ErrTournamentFull),
		errors.Is(err, services.ErrTeamNameConflict),
		errors.Is(err, services.ErrTournamentInvalidStatusTransition),
		errors.Is(err, services.ErrTournamentInvalidDateRange),
		errors.Is(err, services.ErrTournamentNameRequired),
		errors.Is(err, services.ErrNotEnoughTeams),
		errors.Is(err, services.ErrTournamentNotStarted),
		errors.Is(err, services.ErrSnapshotDiverged):
		h.badRequestResponse(w, r, err)

	// Lifecycle guards.
	case errors.Is(err, services.ErrTournamentAlreadyStarted),
		errors.Is(err, services.ErrTournamentNotYetStartable),
		errors.Is(err, services.ErrTournamentAlreadyBracketed),
		errors.Is(err, services.ErrTournamentFinished),
		errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrMatchAlreadyResolved),
		errors.Is(err, services.ErrInvalidWinner),
		errors.Is(err, services.ErrInvalidBracketOperation),
		errors.Is(err, services.ErrSnapshotMissing):
		h.badRequestResponse(w, r, err)

	case errors.Is(err, services.ErrAuthInvalidCredentials):
		h.unauthorizedResponse(w, r, err.Error())

	default:
		h.serverErrorResponse(w, r, err)
	}
}

func getIDFromURL(r *http.Request, key string) (uuid.UUID, error) {
	raw := chi.URLParam(r, key)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s in URL path", key)
	}
	return id, nil
}
