package paths

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withPlatform swaps platform detection for the duration of a test.
func withPlatform(t *testing.T, goos, home, userConfig string) {
	t.Helper()
	saved := platformDir
	platformDir.goos = goos
	platformDir.homeDir = func() (string, error) { return home, nil }
	platformDir.userConfigDir = func() (string, error) { return userConfig, nil }
	t.Cleanup(func() { platformDir = saved })
}

func TestDefaultDirs_Linux(t *testing.T) {
	withPlatform(t, "linux", "/home/ana", "/unused")

	t.Run("uses XDG variables when set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
		t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-config/clientdb", got)

		got, err = DefaultDataDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-data/clientdb", got)
	})

	t.Run("falls back to the home directory", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("XDG_DATA_HOME", "")

		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("/home/ana", ".config", "clientdb"), got)

		got, err = DefaultDataDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("/home/ana", ".local", "share", "clientdb"), got)
	})
}

func TestDefaultDirs_OtherPlatforms(t *testing.T) {
	withPlatform(t, "darwin", "/Users/ana", "/Users/ana/Library/Application Support")

	got, err := DefaultConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/Users/ana/Library/Application Support", "clientdb"), got)

	got, err = DefaultDataDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/Users/ana/Library/Application Support", "clientdb"), got)
}

func TestDefaultConfigDir_HomeError(t *testing.T) {
	withPlatform(t, "linux", "", "")
	platformDir.homeDir = func() (string, error) { return "", errors.New("no home") }
	t.Setenv("XDG_CONFIG_HOME", "")

	_, err := DefaultConfigDir()
	assert.Error(t, err)
}

func TestResolveConfigDir(t *testing.T) {
	withPlatform(t, "linux", "/home/ana", "/unused")
	t.Setenv("XDG_CONFIG_HOME", "")

	tests := []struct {
		name   string
		flag   string
		envVal string
		want   string
	}{
		{name: "flag wins over env", flag: "/explicit/config", envVal: "/env/config", want: "/explicit/config"},
		{name: "env wins when flag empty", envVal: "/env/config", want: "/env/config"},
		{name: "platform default when both empty", want: "/home/ana/.config/clientdb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.envVal)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	withPlatform(t, "linux", "/home/ana", "/unused")
	t.Setenv("XDG_DATA_HOME", "")

	tests := []struct {
		name          string
		flag          string
		configYAMLVal string
		envVal        string
		want          string
	}{
		{name: "flag wins over all", flag: "/flag/data", configYAMLVal: "/config/data", envVal: "/env/data", want: "/flag/data"},
		{name: "config.yaml wins over env", configYAMLVal: "/config/data", envVal: "/env/data", want: "/config/data"},
		{name: "env wins when flag and config empty", envVal: "/env/data", want: "/env/data"},
		{name: "platform default when all empty", want: "/home/ana/.local/share/clientdb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.envVal)
			got, err := ResolveDataDir(tt.flag, tt.configYAMLVal)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_RelativeBecomesAbsolute(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	t.Setenv(EnvDataDir, "relative/env")

	got, err := ResolveConfigDir("relative/path")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)

	got, err = ResolveDataDir("", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
}
