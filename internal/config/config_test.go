package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	dst := DefaultCometConfig()
	err := Load("", &dst)
	require.NoError(t, err)
	assert.Equal(t, "jinshu.comet", dst.Service.ServiceName)
}

func TestInitLoggingRejectsInvalidLevel(t *testing.T) {
	err := InitLogging(Logging{Level: "not-a-level"})
	assert.Error(t, err)
}

func TestInitLoggingAcceptsValidLevel(t *testing.T) {
	err := InitLogging(DefaultLogging())
	assert.NoError(t, err)
}
