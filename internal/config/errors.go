package config

import (
	"errors"
)

// Sentinel kinds so callers can errors.Is on load versus validation failures.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrLoadConfig    = errors.New("configuration load failed")
)
