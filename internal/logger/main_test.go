package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoEventHub/GoEventHub/internal/logger"
)

var errMailRelay = errors.New("smtp relay refused connection")

// line is the subset of a JSON log line the tests look at.
type line struct {
	Level   string `json:"level"`
	App     string `json:"app"`
	Env     string `json:"env"`
	Event   string `json:"event"`
	Error   string `json:"error"`
	Caller  string `json:"caller"`
	Message string `json:"message"`
}

func TestInitRejectsIncompleteConfig(t *testing.T) {
	assert.ErrorIs(t, logger.Init(logger.Log{LogLevel: "info", AppName: "goeventhub"}), logger.ErrServiceNameIsEmpty)
	assert.ErrorIs(t, logger.Init(logger.Log{LogLevel: "info", ServiceName: "web"}), logger.ErrAppNameIsEmpty)
	assert.ErrorContains(t, logger.Init(logger.Log{LogLevel: "chatty", ServiceName: "web", AppName: "goeventhub"}), "chatty")
}

func TestFileOutputSplitsByLevel(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	require.NoError(t, logger.Init(logger.Log{
		LogLevel:    "info",
		ServiceName: "worker",
		AppName:     "goeventhub",
		File: logger.LogFile{
			Enabled: true, Path: dir,
			InfoLog: "info.log", WarnLog: "warn.log", ErrorLog: "error.log", TraceLog: "trace.log",
		},
	}))

	log.Info().Msg("reminder sent")
	log.Warn().Msg("reminder retried")
	log.Error().Err(errMailRelay).Msg("reminder failed")

	read := func(name string) string {
		b, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)

		return string(b)
	}

	assert.Contains(t, read("info.log"), "reminder sent")
	assert.NotContains(t, read("info.log"), "reminder failed")
	assert.Contains(t, read("warn.log"), "reminder retried")
	assert.Contains(t, read("error.log"), errMailRelay.Error())
	assert.NoFileExists(t, filepath.Join(dir, "trace.log"))
}

func TestLogger(t *testing.T) {
	base := logger.Log{ServiceName: "web", AppName: "goeventhub", LogEnv: "staging"}

	testCases := []struct {
		name    string
		level   string
		console logger.Console
		caller  bool
		// messages expected in the output, empty means silent
		want []string
		json bool
	}{
		{
			name: "no console no output",
			want: nil,
		},
		{
			name:    "info hides trace",
			level:   "info",
			console: logger.Console{Enabled: true},
			want:    []string{"registration confirmed", "reminder mail failed"},
			json:    true,
		},
		{
			name:    "trace shows desk lookups",
			level:   "trace",
			console: logger.Console{Enabled: true},
			want:    []string{"registration confirmed", "reminder mail failed", "check-in lookup"},
			json:    true,
		},
		{
			name:    "info with caller",
			level:   "info",
			console: logger.Console{Enabled: true},
			caller:  true,
			want:    []string{"registration confirmed", "reminder mail failed"},
			json:    true,
		},
		{
			name:    "error only",
			level:   "error",
			console: logger.Console{Enabled: true},
			want:    []string{"reminder mail failed"},
			json:    true,
		},
		{
			name:    "console writer is human readable",
			level:   "info",
			console: logger.Console{Enabled: true, UseConsoleWriter: true},
			want:    []string{"registration confirmed", "reminder mail failed"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			cfg.LogLevel = tc.level
			cfg.Console = tc.console
			cfg.ReportCaller = tc.caller

			out := captureOutput(t, cfg)

			if len(tc.want) == 0 {
				assert.Empty(t, out)

				return
			}

			for _, msg := range tc.want {
				assert.Contains(t, out, msg)
			}

			if !tc.json {
				return
			}

			lines := strings.Split(strings.TrimSpace(out), "\n")
			assert.Len(t, lines, len(tc.want))

			for _, raw := range lines {
				var l line
				require.NoError(t, json.Unmarshal([]byte(raw), &l), raw)

				assert.Equal(t, "goeventhub", l.App)
				assert.Equal(t, "staging", l.Env)
				assert.Equal(t, "go-meetup-2026", l.Event)
				assert.Equal(t, tc.caller, l.Caller != "", raw)

				if l.Level == "error" {
					assert.Equal(t, errMailRelay.Error(), l.Error)
				}
			}
		})
	}
}

func captureOutput(t *testing.T, cfg logger.Log) string {
	t.Helper()

	stdout := os.Stdout
	stderr := os.Stderr

	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout = w
	os.Stderr = w

	// Init picks up the swapped files for its console writers
	initErr := logger.Init(cfg)

	log.Info().Str("event", "go-meetup-2026").Msg("registration confirmed")
	log.Error().Str("event", "go-meetup-2026").Err(errMailRelay).Msg("reminder mail failed")
	log.Trace().Str("event", "go-meetup-2026").Msg("check-in lookup")

	outC := make(chan string)
	// copy the output in a separate goroutine so printing can't block indefinitely
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	_ = w.Close()
	os.Stdout = stdout
	os.Stderr = stderr
	out := <-outC

	require.NoError(t, initErr)

	return out
}
