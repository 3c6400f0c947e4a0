package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrUnknownQueueBackend error if queue.backend is neither local nor rabbitmq.
	ErrUnknownQueueBackend = errors.New("toml config queue.backend is unknown")

	// ErrEmptyRabbitURL error if the rabbitmq backend is selected without queue.rabbitURL.
	ErrEmptyRabbitURL = errors.New("toml config queue.rabbitURL can not be empty for the rabbitmq backend")

	// ErrEmptyMailFrom error if mail is enabled without a sender address.
	ErrEmptyMailFrom = errors.New("toml config mail.from can not be empty if mail is enabled")
)
