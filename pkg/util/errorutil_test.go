package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	t.Run("passes through domain errors", func(t *testing.T) {
		err := NewAlreadyAssigned(7)
		got := ToDomainError(err)
		assert.Equal(t, CodeAlreadyAssigned, got.Code)
		assert.Equal(t, http.StatusConflict, got.HTTPStatus)
	})

	t.Run("unwraps wrapped domain errors", func(t *testing.T) {
		err := fmt.Errorf("pick: %w", NewNotAnEngineer(3))
		got := ToDomainError(err)
		assert.Equal(t, CodeNotAnEngineer, got.Code)
	})

	t.Run("maps missing rows to not found", func(t *testing.T) {
		got := ToDomainError(fmt.Errorf("load: %w", pgx.ErrNoRows))
		assert.Equal(t, CodeNotFound, got.Code)
		assert.Equal(t, http.StatusNotFound, got.HTTPStatus)
	})

	t.Run("unknown errors become internal", func(t *testing.T) {
		got := ToDomainError(errors.New("boom"))
		assert.Equal(t, CodeInternal, got.Code)
		assert.Equal(t, http.StatusInternalServerError, got.HTTPStatus)
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, ToDomainError(nil))
	})
}

func TestIsCode(t *testing.T) {
	assert.True(t, IsCode(NewNoEngineers(), CodeNoEngineers))
	assert.False(t, IsCode(NewNoEngineers(), CodeNotFound))
	assert.False(t, IsCode(errors.New("boom"), CodeInternal))
}

func TestInvalidTransitionDetails(t *testing.T) {
	err := NewInvalidTransition("NEW", "RESOLVED", "resolve")
	var domainErr *DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, http.StatusConflict, domainErr.HTTPStatus)
	assert.Equal(t, "NEW", domainErr.Details["from"])
	assert.Equal(t, "RESOLVED", domainErr.Details["to"])
	assert.Equal(t, "resolve", domainErr.Details["operation"])
}
