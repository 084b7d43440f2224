package auth

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	t.Run("errors with the same code match via Is", func(t *testing.T) {
		err := NewError(CodeTokenExpired, "token expired 5m ago", nil)

		assert.True(t, errors.Is(err, ErrTokenExpired))
		assert.False(t, errors.Is(err, ErrTokenInvalid))
	})

	t.Run("wrapped cause survives Unwrap", func(t *testing.T) {
		cause := fmt.Errorf("signature mismatch")
		err := &Error{Code: CodeTokenInvalid, Message: "invalid token", Err: cause}

		assert.True(t, errors.Is(err, cause))
	})

	t.Run("message includes the code", func(t *testing.T) {
		err := NewError(CodeIssuerInvalid, "unexpected issuer", nil)

		assert.Contains(t, err.Error(), string(CodeIssuerInvalid))
		assert.Contains(t, err.Error(), "unexpected issuer")
	})

	t.Run("status maps permission errors to 403 and the rest to 401", func(t *testing.T) {
		cases := []struct {
			code Code
			want int
		}{
			{CodeTokenMissing, http.StatusUnauthorized},
			{CodeTokenExpired, http.StatusUnauthorized},
			{CodeTokenInvalid, http.StatusUnauthorized},
			{CodeIssuerInvalid, http.StatusUnauthorized},
			{CodeAuthFailed, http.StatusUnauthorized},
			{CodeInsufficientPermissions, http.StatusForbidden},
		}
		for _, tc := range cases {
			t.Run(string(tc.code), func(t *testing.T) {
				err := NewError(tc.code, "test", nil)
				require.Equal(t, tc.want, err.Status())
			})
		}
	})
}
