package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "127.0.0.1:50051", c.ServerEndpointAddr)
	assert.Equal(t, "dmoclinic.db", c.LocalDatabasePath)
	assert.Empty(t, c.AccessToken)
	assert.Equal(t, 60*time.Second, c.RolloverCheckInterval)
	assert.Equal(t, 10*time.Second, c.StoreTimeout)
	assert.Equal(t, "text", c.LogFormat)
	assert.False(t, c.ReconcileChecklist)
	assert.Empty(t, c.ClinicianEmails)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"client"}

	cfg := LoadConfig()
	require.NotNil(t, cfg, "LoadConfig must not return nil")

	var want Config
	want.LoadDefaults()
	assert.Equal(t, want, *cfg)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a@x", "b@y"}, splitList("a@x , b@y,,"))
	assert.Nil(t, splitList(" "))
}
