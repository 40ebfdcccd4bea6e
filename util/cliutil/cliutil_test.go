package cliutil

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert := assert.New(t)

	for s, want := range map[string]slog.Level{
		"":      slog.LevelInfo,
		"info":  slog.LevelInfo,
		"DEBUG": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(s)
		assert.NoError(err, s)
		assert.Equal(want, got, s)
	}
	_, err := ParseLevel("loud")
	assert.Error(err)
}

func TestSetupSlog(t *testing.T) {
	assert := assert.New(t)
	prev := slog.Default()
	defer slog.SetDefault(prev)

	path := filepath.Join(t.TempDir(), "aegis.log")
	logger, err := SetupSlog(LogOptions{LogFormat: "json", LogLevel: "warn", LogPath: path})
	require.NoError(t, err)
	assert.NotNil(logger)

	_, err = SetupSlog(LogOptions{LogFormat: "xml", LogPath: path})
	assert.Error(err)
}

func TestSetupDatabase(t *testing.T) {
	assert := assert.New(t)

	db, err := SetupDatabase("sqlite://"+filepath.Join(t.TempDir(), "sub", "test.sqlite"), 4)
	require.NoError(t, err)
	assert.NoError(db.Exec("CREATE TABLE t (id INTEGER)").Error)

	_, err = SetupDatabase("mysql://root@localhost/aegis", 4)
	assert.Error(err)
}
