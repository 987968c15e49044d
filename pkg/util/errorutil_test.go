package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	t.Run("keeps domain errors", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", NewRoutingError("no head hr", nil))
		de := ToDomainError(err)
		require.NotNil(t, de)
		assert.Equal(t, CodeRouting, de.Code)
		assert.Equal(t, http.StatusUnprocessableEntity, de.HTTPStatus)
	})

	t.Run("maps no rows to not found", func(t *testing.T) {
		de := ToDomainError(pgx.ErrNoRows)
		assert.Equal(t, CodeNotFound, de.Code)
		assert.Equal(t, http.StatusNotFound, de.HTTPStatus)
	})

	t.Run("maps deadline to storage unavailable", func(t *testing.T) {
		de := ToDomainError(context.DeadlineExceeded)
		assert.Equal(t, CodeStorageUnavailable, de.Code)
		assert.Equal(t, http.StatusServiceUnavailable, de.HTTPStatus)
		assert.True(t, errors.Is(de, context.DeadlineExceeded))
	})

	t.Run("falls back to internal", func(t *testing.T) {
		de := ToDomainError(errors.New("boom"))
		assert.Equal(t, CodeInternal, de.Code)
		assert.Equal(t, "internal server error", de.Message)
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, ToDomainError(nil))
	})
}

func TestStorageError(t *testing.T) {
	assert.Nil(t, StorageError("ticket", nil))
	assert.True(t, HasCode(StorageError("ticket", ErrNotFound), CodeNotFound))
	assert.True(t, HasCode(StorageError("ticket", fmt.Errorf("get: %w", pgx.ErrNoRows)), CodeNotFound))
	assert.True(t, HasCode(StorageError("ticket", ErrVersionConflict), CodeConflict))
	assert.True(t, HasCode(StorageError("ticket", errors.New("connection refused")), CodeStorageUnavailable))
	assert.True(t, HasCode(StorageError("ticket", context.DeadlineExceeded), CodeStorageUnavailable))
	assert.True(t, HasCode(StorageError("ticket", NewForbidden("no")), CodeForbidden))

	de := ToDomainError(StorageError("ticket", errors.New("dial tcp: refused")))
	assert.Equal(t, "storage temporarily unavailable, please retry", de.Message)
}

func TestHasCode(t *testing.T) {
	assert.True(t, HasCode(NewValidationError("bad", nil), CodeValidation))
	assert.False(t, HasCode(NewValidationError("bad", nil), CodeForbidden))
	assert.False(t, HasCode(errors.New("plain"), CodeValidation))
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "VPN drops every hour", PlainText("  <b>VPN</b> drops every hour "))
	assert.Equal(t, "salary & allowances", PlainText("salary & allowances"))

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"unknown tag-like text kept", "error code <abc123> on login", "error code <abc123> on login"},
		{"comparison kept", "fails when x < 5 and y > 2", "fails when x < 5 and y > 2"},
		{"trailing bracket kept", "arrow <", "arrow <"},
		{"element prefix is not an element", "see <bfoo> here", "see <bfoo> here"},
		{"known element stripped", "a<b and c>d", "ad"},
		{"uppercase element stripped", "<DIV>Printer</DIV> jammed", "Printer jammed"},
		{"comment stripped", "VPN<!-- hidden --> down", "VPN down"},
		{"script body dropped", "ok<script>alert(1)</script>", "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.in))
		})
	}
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview(" short ", 10))
	assert.Equal(t, "abcdefg...", Preview("abcdefghijklmnop", 10))
}
