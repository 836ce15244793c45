package cli

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/amanullahtanweer/unibot/internal/dataset"
	redis "github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCSV = `sports,associations,events
Football,Debate Club,Karaoke Night (14 Feb)
Tennis,Language Club,Spring Fair (2 Mar)
Aikido,Music Band,Founders Day (1 Jan)
,,TBD Mixer
`

// testConfig writes a dataset and a config pointing at it, and returns the
// config path.
func testConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	csvPath := filepath.Join(dir, "unilife.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(testCSV), 0644))

	cfg := fmt.Sprintf("dataset:\n  path: %s\nlog:\n  level: warn\n%s", csvPath, extra)
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))
	return cfgPath
}

func executeCmd(t *testing.T, app *App, stdin string, args ...string) (string, string, error) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() {
		_ = app.Close()
		slog.SetDefault(prev)
	})

	root := NewRootCmd(app)
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestVersion(t *testing.T) {
	cfg := testConfig(t, "")

	out, _, err := executeCmd(t, &App{Version: "1.2.3"}, "", "--config", cfg, "version")
	require.NoError(t, err)
	assert.Equal(t, "unibot 1.2.3\n", out)

	out, _, err = executeCmd(t, &App{}, "", "--config", cfg, "version")
	require.NoError(t, err)
	assert.Equal(t, "unibot dev\n", out)
}

func TestClassifyCmd(t *testing.T) {
	cfg := testConfig(t, "")

	testCases := []struct {
		text        string
		expected    []string
		description string
	}{
		{"I need help with my exam timetable", []string{"topic: studying", "scored: studying (confidence 0.67)", "hits: studying:2, sports:0, social:0"}, "studying"},
		{"exam and gym", []string{"topic: unknown", "scored: unknown (confidence 0.00)"}, "two topics"},
		{"help", []string{"topic: unknown", "hits: studying:0, sports:0, social:0"}, "no topic"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			out, _, err := executeCmd(t, &App{}, "", append([]string{"--config", cfg, "classify"}, strings.Fields(tc.text)...)...)
			require.NoError(t, err)
			for _, line := range tc.expected {
				assert.Contains(t, out, line)
			}
		})
	}
}

func TestEventsCmd(t *testing.T) {
	cfg := testConfig(t, "")

	out, _, err := executeCmd(t, &App{}, "", "--config", cfg, "events")
	require.NoError(t, err)
	assert.Equal(t, "4 events\n"+
		"  1. Founders Day (1 Jan)\n"+
		"  2. Karaoke Night (14 Feb)\n"+
		"  3. Spring Fair (2 Mar)\n"+
		"  4. TBD Mixer (no date)\n", out)

	out, _, err = executeCmd(t, &App{}, "", "--config", cfg, "events", "--limit", "2")
	require.NoError(t, err)
	assert.Equal(t, "2 events\n  1. Founders Day (1 Jan)\n  2. Karaoke Night (14 Feb)\n", out)
}

func TestRecommendCmd(t *testing.T) {
	cfg := testConfig(t, "")

	out, _, err := executeCmd(t, &App{}, "", "--config", cfg, "recommend", "sport", "looking", "for", "team", "sports")
	require.NoError(t, err)
	assert.Equal(t, "Football\n", out)

	out, _, err = executeCmd(t, &App{}, "", "--config", cfg, "recommend", "association", "I", "love", "music")
	require.NoError(t, err)
	assert.Equal(t, "Music Band\n", out)

	_, _, err = executeCmd(t, &App{}, "", "--config", cfg, "recommend", "sport")
	assert.Error(t, err)
}

func TestChatCmd(t *testing.T) {
	sessions := filepath.Join(t.TempDir(), "sessions")
	cfg := testConfig(t, "  session_dir: "+sessions+"\n")

	stdin := "when is the enrol deadline\njust practical info\nno thanks\n"
	out, _, err := executeCmd(t, &App{IsInteractive: func() bool { return false }}, stdin, "--config", cfg)
	require.NoError(t, err)

	assert.Contains(t, out, "Hello! What can I help you with today?\n> ")
	assert.Contains(t, out, "Suggestion: use the Student Desk contact form for practical info.\n")
	assert.True(t, strings.HasSuffix(out, "Got you. Closing the chat. Have a solid day!\n"), out)
	assert.NotContains(t, out, "\x1b[", "no styling off a terminal")

	logs, err := filepath.Glob(filepath.Join(sessions, "*.jsonl"))
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestChatCmdGuidedMode(t *testing.T) {
	cfg := testConfig(t, "flow:\n  mode: guided\n")

	stdin := strings.Join([]string{
		"hype", "high", "with friends", "tight",
		"party or club or festival", "events",
		"nope",
	}, "\n") + "\n"
	out, _, err := executeCmd(t, &App{}, stdin, "--config", cfg, "chat")
	require.NoError(t, err)

	assert.Contains(t, out, "Topic: social (confidence about 100%)")
	assert.Contains(t, out, "Handpicked events for your vibe and energy:\n • Karaoke Night (14 Feb)\n")
}

func TestChatCmdEndOfInput(t *testing.T) {
	cfg := testConfig(t, "")

	out, _, err := executeCmd(t, &App{}, "I want to do some sport\n", "--config", cfg, "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "Do you already have a specific sport in mind")
}

func TestDatasetImportCmd(t *testing.T) {
	cfg := testConfig(t, "")
	db := filepath.Join(t.TempDir(), "unilife.db")

	out, _, err := executeCmd(t, &App{}, "", "--config", cfg, "dataset", "import", "--to", db)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("imported 3 sports, 3 associations, 4 events into %s (table catalog)\n", db), out)

	c, err := dataset.LoadSQLite(db, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Football", "Tennis", "Aikido"}, c.Sports)

	// the imported database serves as a dataset source
	sqliteCfg := filepath.Join(t.TempDir(), "sqlite.yaml")
	require.NoError(t, os.WriteFile(sqliteCfg, []byte(fmt.Sprintf("dataset:\n  source: sqlite\n  path: %s\n", db)), 0644))
	out, _, err = executeCmd(t, &App{}, "", "--config", sqliteCfg, "events", "--limit", "1")
	require.NoError(t, err)
	assert.Equal(t, "1 events\n  1. Founders Day (1 Jan)\n", out)

	_, _, err = executeCmd(t, &App{}, "", "--config", cfg, "dataset", "import")
	assert.Error(t, err, "--to is required")
}

func TestConfigAndDatasetErrors(t *testing.T) {
	cfg := testConfig(t, "")

	_, _, err := executeCmd(t, &App{}, "", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "version")
	assert.Error(t, err)

	_, _, err = executeCmd(t, &App{}, "", "--config", cfg, "--log-level", "loud", "version")
	assert.Error(t, err)

	broken := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("dataset:\n  path: nowhere.csv\n"), 0644))
	_, _, err = executeCmd(t, &App{}, "", "--config", broken, "events")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nowhere.csv")
}

func TestTerminalCancelUnblocksAsk(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer w.Close()
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	term := NewTerminal(ctx, r, new(bytes.Buffer), false)
	defer term.Close()

	errCh := make(chan error, 1)
	go func() {
		_, err := term.Ask("anything?")
		errCh <- err
	}()
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Ask did not return after cancel")
	}
}

func TestPaletteRendersPlainWithoutColor(t *testing.T) {
	assert.Equal(t, "hello", palette{}.render(styleBot, "hello"))
}

func TestCloseReleasesServicesAfterFailedCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("dataset:\n  path: nowhere.csv\nlog:\n  level: error\nredis:\n  addr: 127.0.0.1:1\n"), 0644))

	app := &App{}
	_, _, err := executeCmd(t, app, "", "--config", cfg, "events")
	require.Error(t, err)
	require.NotNil(t, app.injector, "a failed command leaves its services to Close")

	rec := do.MustInvoke[*Recording](app.injector)
	require.NotNil(t, rec.client)

	require.NoError(t, app.Close())
	assert.Nil(t, app.injector)
	assert.ErrorIs(t, rec.client.Ping(context.Background()).Err(), redis.ErrClosed)
	assert.NoError(t, app.Close())
}
