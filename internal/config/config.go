// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix of environment variables overriding single config keys,
	// e.g. GOEVENTHUB_WEBSERVER_PORT=9090.
	EnvPrefix = "GOEVENTHUB"

	// EnvConfigJSON holds a JSON document merged over the file based config.
	EnvConfigJSON = "GOEVENTHUB_CONFIG_JSON"

	defaultShutDownTime  = 5
	defaultSessionExpiry = 24 * time.Hour
	defaultSettingsTTL   = time.Hour
	defaultQueueWorkers  = 2
	defaultQueueBuffer   = 256
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigFile(path + "main.toml")
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv(EnvConfigJSON)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to decode "+EnvConfigJSON)
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks the settings the daemon can not start without
// and fills in defaults for optional ones.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	// validate webserver listening port
	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	// base url is used for redirects and QR payloads
	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	c.Webserver.URL = strings.TrimRight(c.Webserver.URL, "/")

	switch c.Queue.Backend {
	case "", QueueBackendLocal:
		c.Queue.Backend = QueueBackendLocal
	case QueueBackendRabbitMQ:
		if c.Queue.RabbitURL == "" {
			return errors.Wrap(ErrEmptyRabbitURL, invalidErrMessage)
		}
	default:
		return errors.Wrapf(ErrUnknownQueueBackend, "%s: %q", invalidErrMessage, c.Queue.Backend)
	}

	if c.Mail.Enabled && c.Mail.From == "" {
		return errors.Wrap(ErrEmptyMailFrom, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if c.Webserver.Session.ExpiryTime == 0 {
		c.Webserver.Session.ExpiryTime = defaultSessionExpiry
	}

	if c.Cache.SettingsTTL == 0 {
		c.Cache.SettingsTTL = defaultSettingsTTL
	}

	if c.Queue.Workers == 0 {
		c.Queue.Workers = defaultQueueWorkers
	}

	if c.Queue.Buffer == 0 {
		c.Queue.Buffer = defaultQueueBuffer
	}

	return nil
}
