package rpc

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusConstructors(t *testing.T) {
	assert.Equal(t, CodeInternal, StatusInternal(errors.New("boom")).Code)
	assert.Equal(t, CodeInvalidArgument, StatusInvalidArgument(errors.New("bad")).Code)
	assert.Equal(t, CodeNotFound, StatusNotFound(errors.New("missing")).Code)
}

func TestWriteAndReadErrorRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, StatusNotFound(errors.New("no such user")))

	resp := rec.Result()
	assert.Equal(t, 404, resp.StatusCode)

	err := ReadError(resp)
	require.Error(t, err)
	status := AsStatus(err)
	assert.Equal(t, CodeNotFound, status.Code)
	assert.Equal(t, "no such user", status.Message)
}

func TestAsStatusDefaultsToInternal(t *testing.T) {
	status := AsStatus(errors.New("plain error"))
	assert.Equal(t, CodeInternal, status.Code)
}
