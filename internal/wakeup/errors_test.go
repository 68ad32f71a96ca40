package wakeup_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"clanwake/internal/wakeup"
)

func TestAttemptError_Error(t *testing.T) {
	err := &wakeup.AttemptError{Attempt: 1, StatusCode: 503}
	assert.Equal(t, "attempt 2: status 503", err.Error())

	err = &wakeup.AttemptError{Attempt: 0, Cause: errors.New("connection refused")}
	assert.Equal(t, "attempt 1: connection refused", err.Error())
	assert.False(t, err.Timeout())
}

func TestExhaustedError_Is(t *testing.T) {
	cause := &wakeup.AttemptError{Attempt: 2, StatusCode: 502}
	err := &wakeup.ExhaustedError{Attempts: 3, Last: cause}

	assert.ErrorIs(t, err, wakeup.ErrExhausted)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "endpoint did not become ready after 3 attempt(s): attempt 3: status 502", err.Error())
	assert.Equal(t, "endpoint did not become ready after 0 attempt(s)", (&wakeup.ExhaustedError{}).Error())
}
