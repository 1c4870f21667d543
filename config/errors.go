package config

import "errors"

// ErrInvalidConfig is returned by Validate for out-of-range or malformed
// configuration values.
var ErrInvalidConfig = errors.New("config: invalid configuration")
