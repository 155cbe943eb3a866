package config

import "errors"

var (
	ErrFileDoesNotExist   = errors.New("config file does not exist")
	ErrFileNotReadable    = errors.New("config file is not readable")
	ErrFileContentInvalid = errors.New("config file content is invalid")
	ErrQueryEmpty         = errors.New("query cannot be empty")
	ErrMaxPagesInvalid    = errors.New("maxPages must be at least 1")
	ErrMaxTimeInvalid     = errors.New("maxTime must be positive")
	ErrWorkersInvalid     = errors.New("workers must be at least 1")
	ErrMaxTimeoutsInvalid = errors.New("maxTimeouts must be at least 1")
	ErrLogPathEmpty       = errors.New("logPath cannot be empty")
)
