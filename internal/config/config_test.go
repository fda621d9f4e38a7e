package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	require.Equal(t, Default().Quote.Endpoint, cfg.Quote.Endpoint)
	require.NotEmpty(t, cfg.Symbols)
	require.True(t, cfg.Chart.FixedPercentage)
}

func TestLoad_FileOverridesAndEnvWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{"symbols":[{"symbol":"600000","name":"浦发银行"}],"refresh_interval_sec":7,"chart":{"fixed_percentage":false,"max_percentage":15}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	t.Setenv("TICKER_REFRESH_SEC", "9")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Symbols, 1)
	require.Equal(t, "600000", cfg.Symbols[0].Symbol)
	require.Equal(t, 9, cfg.RefreshIntervalSec)
	require.False(t, cfg.Chart.FixedPercentage)
	require.Equal(t, 15.0, cfg.Chart.MaxPercentage)
}

func TestLoad_SymbolsFromEnvCSV(t *testing.T) {
	t.Setenv("TICKER_SYMBOLS", " 600519 ,000001,")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	require.Equal(t, []Watch{{Symbol: "600519"}, {Symbol: "000001"}}, cfg.Symbols)
}

func TestLoad_BadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}
