package llm

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorForStatus(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusTooManyRequests, func(err error) bool { var e *ErrRateLimit; return errors.As(err, &e) }},
		{http.StatusUnauthorized, func(err error) bool { var e *ErrAuth; return errors.As(err, &e) }},
		{http.StatusForbidden, func(err error) bool { var e *ErrAuth; return errors.As(err, &e) }},
		{http.StatusBadGateway, func(err error) bool { var e *ErrProviderUnavailable; return errors.As(err, &e) }},
		{http.StatusBadRequest, func(err error) bool { var e *ErrProviderUnavailable; return errors.As(err, &e) }},
	}
	for _, tt := range tests {
		err := errorForStatus(tt.status, cause)
		assert.True(t, tt.check(err), "status %d mapped to %T", tt.status, err)
		assert.ErrorIs(t, err, cause)
	}
}

func TestErrMaxTokensExceeded_Message(t *testing.T) {
	err := &ErrMaxTokensExceeded{Text: "abcd"}
	assert.Contains(t, err.Error(), "4 bytes")
}
