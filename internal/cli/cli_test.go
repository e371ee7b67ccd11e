package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-copilot/internal/config"
)

func testRoot(t *testing.T) *bytes.Buffer {
	t.Helper()
	return &bytes.Buffer{}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Journal.Path = filepath.Join(dir, "journal.csv")
	cfg.MarketData.CacheDir = filepath.Join(dir, "data")
	cfg.Advisor.Enabled = false
	return cfg
}

func execute(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	buf := testRoot(t)
	root := NewRootCmd(cfg, zerolog.Nop())
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, testConfig(t), "version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}

func TestAnalyzeCommand(t *testing.T) {
	out, err := execute(t, testConfig(t),
		"analyze", "AAPL 185C 14DTE @ 2.50",
		"--spot", "182.40", "--iv", "28", "--iv-rank", "45", "--score", "85")
	require.NoError(t, err)
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "Stop")
	assert.Contains(t, out, "Recommendation")
}

func TestAnalyzeCommandJSON(t *testing.T) {
	out, err := execute(t, testConfig(t),
		"analyze", "AAPL 185C 14DTE @ 2.50",
		"--spot", "182.40", "--iv", "28", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"plan"`)
	assert.Contains(t, out, `"recommendation"`)
}

func TestAnalyzeCommandParseFailure(t *testing.T) {
	_, err := execute(t, testConfig(t), "analyze", "buy some calls maybe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "supported formats")
}

func TestAnalyzeRecordAndJournalFlow(t *testing.T) {
	cfg := testConfig(t)

	_, err := execute(t, cfg,
		"analyze", "AAPL 185C 14DTE @ 2.50",
		"--spot", "182.40", "--iv", "28", "--record")
	require.NoError(t, err)

	out, err := execute(t, cfg, "journal", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "AAPL")

	out, err = execute(t, cfg, "journal", "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "1 open")
}

func TestJournalShowEmpty(t *testing.T) {
	out, err := execute(t, testConfig(t), "journal", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Journal is empty")
}

func TestJournalCloseUnknownReason(t *testing.T) {
	_, err := execute(t, testConfig(t), "journal", "close", "abc",
		"--exit", "1.00", "--reason", "vibes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stop, target, or expiry")
}

func TestBacktestCommandNoData(t *testing.T) {
	out, err := execute(t, testConfig(t), "backtest", "SPY")
	require.NoError(t, err)
	assert.Contains(t, out, "No qualifying setups")
}
