package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	ErrUnknownDriver         = errors.New("unknown storage driver: use sqlite or postgres")
	ErrNoStoragePath         = errors.New("no storage path: set STORAGE_PATH or --db")
	ErrInvalidScrollAttempts = errors.New("invalid max scroll attempts: must be at least 1")
	ErrNegativeWait          = errors.New("invalid wait policy: delays must be non-negative")
	ErrInvalidPageTimeout    = errors.New("invalid page timeout: must be positive")
	ErrNoItemSelector        = errors.New("no item selector configured")
	ErrInvalidRateLimit      = errors.New("invalid rate limit: must be non-negative")
)
