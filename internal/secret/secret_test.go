package secret

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpose(t *testing.T) {
	s := New("hunter2")
	assert.Equal(t, "hunter2", s.Expose())
	assert.Equal(t, []byte("hunter2"), s.ExposeBytes())
}

func TestDebugAndDisplayHidePlaintext(t *testing.T) {
	s := New("hunter2")
	assert.Equal(t, DebugString, fmt.Sprintf("%v", s))
	assert.Equal(t, DebugString, fmt.Sprintf("%s", s))
	assert.Equal(t, DebugString, s.String())
}

func TestDestroyZeroesPlaintext(t *testing.T) {
	s := New("hunter2")
	s.Destroy()
	assert.Empty(t, s.Expose())
}

func TestJSONRoundTrip(t *testing.T) {
	s := New("hunter2")

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `"hunter2"`, string(data))

	var got Secret
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "hunter2", got.Expose())
}
