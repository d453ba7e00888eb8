package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestFromStore_Classification(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"no rows", fmt.Errorf("get: %w", pgx.ErrNoRows), CodeNotFound, http.StatusNotFound},
		{"unique", &pgconn.PgError{Code: "23505"}, CodeConflict, http.StatusConflict},
		{"foreign key", &pgconn.PgError{Code: "23503"}, CodeValidationFailed, http.StatusBadRequest},
		{"check", &pgconn.PgError{Code: "23514"}, CodeValidationFailed, http.StatusBadRequest},
		{"malformed uuid", &pgconn.PgError{Code: "22P02"}, CodeValidationFailed, http.StatusBadRequest},
		{"connection", &pgconn.PgError{Code: "08006"}, CodeTransientStore, http.StatusServiceUnavailable},
		{"deadline", context.DeadlineExceeded, CodeTransientStore, http.StatusServiceUnavailable},
		{"other", errors.New("boom"), CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := FromStore(tc.err, "ticket")
			de := ToDomainError(err)
			assert.Equal(t, tc.code, de.Code)
			assert.Equal(t, tc.status, de.HTTPStatus)
		})
	}
}

func TestFromStore_PassesDomainErrorsThrough(t *testing.T) {
	assert.Nil(t, FromStore(nil, "ticket"))
	original := NewForbidden("nope")
	assert.Same(t, original, FromStore(original, "ticket"))
}
