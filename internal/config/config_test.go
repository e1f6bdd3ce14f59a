package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := Default()

	assert.Equal(t, "8080", c.Server.Port)
	assert.Equal(t, 500, c.Chat.HistoryLimit)
	assert.Equal(t, 10*time.Second, c.Chat.TypingWindow)
	assert.Equal(t, "info", c.Logger.Level)
}

func TestParseConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9000"
chat:
  historylimit: 100
  typingwindow: 5s
logger:
  level: debug
`), 0644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	c, err := ParseConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "9000", c.Server.Port)
	assert.Equal(t, 100, c.Chat.HistoryLimit)
	assert.Equal(t, 5*time.Second, c.Chat.TypingWindow)
	assert.Equal(t, "debug", c.Logger.Level)
	// Untouched keys keep their defaults.
	assert.Equal(t, "data/chat.db", c.Store.Path)
}
