package stdlogger_test

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoEventHub/GoEventHub/internal/logger"
	"github.com/GoEventHub/GoEventHub/internal/logger/adapter/stdlogger"
)

type line struct {
	Level     string `json:"level"`
	Component string `json:"component"`
	Message   string `json:"message"`
}

func TestComponentLines(t *testing.T) {
	out := capture(t, "info", func() {
		gorm := stdlogger.New("gorm")
		// gorm's logger.Writer prefixes a newline and file:line
		gorm.Printf("\n%s [%.3fms] [rows:%d] %s\n", "registration.go:88", 2.5, 1, "SELECT * FROM `events`")

		amqp := stdlogger.New("amqp")
		amqp.Warningf("reconnecting to %s", "amqp://rabbit:5672/")
		amqp.Errorf("channel closed: %d", 504)
		amqp.Debugf("heartbeat %d", 1)

		stdlogger.New().Infof("seeded %d settings", 12)
	})

	lines := decode(t, out)
	require.Len(t, lines, 4)

	assert.Equal(t, line{Level: "info", Component: "gorm", Message: "registration.go:88 [2.500ms] [rows:1] SELECT * FROM `events`"}, lines[0])
	assert.Equal(t, line{Level: "warn", Component: "amqp", Message: "reconnecting to amqp://rabbit:5672/"}, lines[1])
	assert.Equal(t, line{Level: "error", Component: "amqp", Message: "channel closed: 504"}, lines[2])
	assert.Equal(t, line{Level: "info", Message: "seeded 12 settings"}, lines[3])
}

func TestDebugLevelShowsDebugf(t *testing.T) {
	out := capture(t, "debug", func() {
		stdlogger.New("amqp").Debugf("heartbeat %d", 1)
	})

	lines := decode(t, out)
	require.Len(t, lines, 1)
	assert.Equal(t, "debug", lines[0].Level)
}

func TestSilentWithoutConsole(t *testing.T) {
	out := capture(t, "", func() {
		stdlogger.New("gorm").Errorf("record not found")
	})

	assert.Empty(t, out)
}

func decode(t *testing.T, out string) []line {
	t.Helper()

	var lines []line

	for _, raw := range strings.Split(strings.TrimSpace(out), "\n") {
		var l line
		require.NoError(t, json.Unmarshal([]byte(raw), &l), raw)

		lines = append(lines, l)
	}

	return lines
}

// capture initialises the logger for level and returns what fn wrote.
// An empty level leaves the console disabled.
func capture(t *testing.T, level string, fn func()) string {
	t.Helper()

	stdout := os.Stdout
	stderr := os.Stderr

	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout = w
	os.Stderr = w

	initErr := logger.Init(logger.Log{
		LogLevel:    level,
		ServiceName: "worker",
		AppName:     "goeventhub",
		Console:     logger.Console{Enabled: level != ""},
	})
	if initErr == nil {
		fn()
	}

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
