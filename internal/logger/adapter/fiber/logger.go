// Package fiber implements a zerolog based access log middleware for fiber.
package fiber

import (
	"io"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/GoEventHub/GoEventHub/internal/logger"
)

// Config implements fiber middleware struct.
type Config struct {
	// Next defines a function to skip this middleware when returned true.
	//
	// Optional. Default: nil
	Next func(c *fiber.Ctx) bool

	// Config of the logger.
	Config logger.Log

	// CacheControlError is sent with responses the app error handler could not render.
	CacheControlError string

	// CheckAliveURI is not logged when Config.DisableCheckAlive is set.
	CheckAliveURI string

	// UserLocal is the fiber.Locals key holding the authenticated user id.
	// Optional. Empty disables the user_id field.
	UserLocal string
}

// ConfigDefault is the default config for fiber.
var ConfigDefault = Config{
	Next:              nil,
	CacheControlError: "max-age=0",
}

func configDefault(config ...Config) Config {
	if len(config) < 1 {
		return ConfigDefault
	}

	cfg := config[0]
	if cfg.CacheControlError == "" {
		cfg.CacheControlError = ConfigDefault.CacheControlError
	}

	return cfg
}

// New creates the access log middleware. It renders handler errors itself, through the
// app error handler, so the logged status is the one the client receives.
func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)
	access := newAccessLogger(cfg.Config)

	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		start := time.Now()

		chainErr := c.Next()
		if chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
				c.Response().Header.Set(fiber.HeaderCacheControl, cfg.CacheControlError)
			}
		}

		elapsed := time.Since(start).Seconds()
		c.Locals("elapsed", elapsed)
		c.Response().Header.Set("X-Performance", strconv.FormatFloat(elapsed, 'f', 6, 64)) //nolint:mnd

		uri := requestURI(c)
		if cfg.Config.DisableCheckAlive && cfg.CheckAliveURI != "" && uri == cfg.CheckAliveURI {
			return nil
		}

		e := access.Log().
			Str("IP", c.IP()).
			Int("status", c.Response().StatusCode()).
			Float64("X-Performance", elapsed).
			Str("URI", uri).
			Str("method", c.Method()).
			Bytes("host", c.Request().Host()).
			Str(fiber.HeaderXForwardedFor, c.Get(fiber.HeaderXForwardedFor)).
			Str(fiber.HeaderUserAgent, c.Get(fiber.HeaderUserAgent)).
			Str(fiber.HeaderOrigin, c.Get(fiber.HeaderOrigin)).
			Str(fiber.HeaderReferer, c.Get(fiber.HeaderReferer))

		// set by the requestid middleware
		if rid := c.GetRespHeader(fiber.HeaderXRequestID); rid != "" {
			e.Str("request_id", rid)
		}

		if cfg.UserLocal != "" {
			if uid, ok := c.Locals(cfg.UserLocal).(uint64); ok && uid > 0 {
				e.Uint64("user_id", uid)
			}
		}

		e.Err(chainErr).Send()

		return nil
	}
}

// requestURI is the path as the client sent it plus the raw query. fasthttp normalizes
// "/events//x" for routing, the access log keeps the original.
func requestURI(c *fiber.Ctx) string {
	p := c.Path()
	if q := c.Request().URI().QueryString(); len(q) > 0 {
		p += "?" + string(q)
	}

	return p
}

// newAccessLogger writes to the rotated access file and, if both console flags are set, to stdout.
func newAccessLogger(cfg logger.Log) zerolog.Logger {
	var writers []io.Writer

	if cfg.File.Enabled {
		if fw := newRollingAccessFile(cfg.File); fw != nil {
			writers = append(writers, fw)
		}
	}

	if cfg.Console.Enabled && cfg.EnableAccessLogToConsole {
		if cfg.Console.UseConsoleWriter {
			writers = append(writers, zerolog.ConsoleWriter{
				Out:          os.Stdout,
				TimeFormat:   zerolog.TimeFieldFormat,
				PartsExclude: []string{zerolog.LevelFieldName},
			})
		} else {
			writers = append(writers, os.Stdout)
		}
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Logger().
		Level(zerolog.NoLevel)
}

func newRollingAccessFile(f logger.LogFile) io.Writer {
	if f.Path != "" {
		if err := os.MkdirAll(f.Path, 0o750); err != nil { //nolint:mnd
			log.Error().Err(err).Str("path", f.Path).Msg("can't create log directory")

			return nil
		}
	}

	return &lumberjack.Logger{
		Filename:   path.Join(f.Path, f.AccessLog),
		MaxSize:    f.AccessMaxSize,
		MaxAge:     f.AccessMaxAge,
		MaxBackups: f.AccessMaxBackups,
	}
}
