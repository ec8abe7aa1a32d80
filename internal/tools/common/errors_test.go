package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teemow/julian/internal/freeslots"
	"github.com/teemow/julian/internal/google"
)

func TestClientErrorResult(t *testing.T) {
	result := ClientErrorResult("work", fmt.Errorf("account work: %w", google.ErrNoToken))
	assert.True(t, result.IsError)
	assert.Contains(t, ResultText(result), "google_get_auth_url")
	assert.Contains(t, ResultText(result), `"work"`)

	result = ClientErrorResult("work", errors.New("boom"))
	assert.True(t, result.IsError)
	assert.Equal(t, "boom", ResultText(result))
}

func TestOperationErrorResult(t *testing.T) {
	invalid := &freeslots.ValidationError{Field: "HorizonDays", Reason: "must be positive"}

	result := OperationErrorResult("find free slots", invalid)
	assert.True(t, result.IsError)
	assert.Contains(t, ResultText(result), "Invalid request")

	result = OperationErrorResult("find free slots", errors.New("backend down"))
	assert.Equal(t, "Failed to find free slots: backend down", ResultText(result))
}
