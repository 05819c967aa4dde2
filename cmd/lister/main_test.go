package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"gw2-optimal-lister/internal/catalog"
	"gw2-optimal-lister/internal/core/model"
)

func TestNewLogger_InvalidLevelFallsBack(t *testing.T) {
	logger := newLogger("not-a-level")
	require.NotNil(t, logger)
	require.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	require.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"search", "rebuild", "serve", "version"} {
		require.True(t, names[want], "缺少子命令 %s", want)
	}
}

func TestConsoleSink(t *testing.T) {
	var buf bytes.Buffer
	s := consoleSink{w: &buf}
	s.OnStatus(model.StatusEvent{Severity: model.SeverityInfo, Message: "Fetching price list IDs..."})
	s.OnResult(model.ResultEvent{Kind: model.ResultSearch, Outcome: model.OutcomeSuccess, Message: "ignored"})
	s.OnResult(model.ResultEvent{Kind: model.ResultBuild, Outcome: model.OutcomeSuccess, Message: "Item cache built with 2 items."})
	require.Equal(t, "[info] Fetching price list IDs...\n[success] Item cache built with 2 items.\n", buf.String())
}

func fakeAPI() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids := r.URL.Query().Get("ids")
		switch {
		case r.URL.Path == catalog.PathTradeableIDs && ids == "":
			_, _ = w.Write([]byte(`[19699]`))
		case r.URL.Path == catalog.PathItems:
			_, _ = w.Write([]byte(`[{"id":19699,"name":"Iron Ore"}]`))
		case r.URL.Path == catalog.PathPrices:
			_, _ = w.Write([]byte(`[{"id":19699,"buys":{"quantity":1234,"unit_price":100},"sells":{"quantity":40,"unit_price":150}}]`))
		case r.URL.Path == catalog.PathListings:
			_, _ = w.Write([]byte(`[{"id":19699,"buys":[],"sells":[{"listings":1,"unit_price":150,"quantity":5}]}]`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func writeConfig(t *testing.T, baseURL string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "item_cache.json")
	content := "app:\n  log_level: error\n" +
		"api:\n  base_url: " + baseURL + "\n  retry_delay_ms: 1\n" +
		"cache:\n  path: " + cachePath + "\n" +
		"events:\n  status_poll_ms: 1\n  result_poll_ms: 1\n"
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path, cachePath
}

func TestSearchCommand_EndToEnd(t *testing.T) {
	srv := fakeAPI()
	defer srv.Close()
	cfgPath, cachePath := writeConfig(t, srv.URL)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"--config", cfgPath, "search", "Iron", "Ore"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	out := stdout.String()
	require.Contains(t, out, "Iron Ore")
	require.Contains(t, out, "Suggested Price: 1s 49c")
	require.Contains(t, out, "Up to 5")
	require.True(t, strings.Contains(stderr.String(), "Item cache built and saved. Ready."), stderr.String())

	_, err := os.Stat(cachePath)
	require.NoError(t, err, "应写入缓存快照")
}

func TestSearchCommand_NotFound(t *testing.T) {
	srv := fakeAPI()
	defer srv.Close()
	cfgPath, _ := writeConfig(t, srv.URL)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"--config", cfgPath, "search", "Mithril Ore"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	require.Error(t, err)
	require.Equal(t, "Item 'Mithril Ore' not found in cache. Try ID?", err.Error())
}
