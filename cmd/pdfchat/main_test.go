package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_StreamingFromFile(t *testing.T) {
	path := writeConfig(t, "chat:\n  streaming: false\n")

	// Without -stream on the command line the file's value stands
	config, err := loadConfig(flags{configPath: path})
	require.NoError(t, err)
	require.NotNil(t, config.Chat.Streaming)
	assert.False(t, *config.Chat.Streaming)
}

func TestLoadConfig_StreamFlagWinsWhenSet(t *testing.T) {
	path := writeConfig(t, "chat:\n  streaming: false\n")

	config, err := loadConfig(flags{configPath: path, streaming: true, streamSet: true})
	require.NoError(t, err)
	require.NotNil(t, config.Chat.Streaming)
	assert.True(t, *config.Chat.Streaming)

	config, err = loadConfig(flags{configPath: path, streaming: false, streamSet: true})
	require.NoError(t, err)
	assert.False(t, *config.Chat.Streaming)
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	path := writeConfig(t, "library:\n  docs_dir: filedocs\nchat:\n  top_k: 5\n")

	config, err := loadConfig(flags{configPath: path, docsDir: "flagdocs", topK: 7})
	require.NoError(t, err)
	assert.Equal(t, "flagdocs", config.Library.DocsDir)
	assert.Equal(t, 7, config.Chat.TopK)
}
