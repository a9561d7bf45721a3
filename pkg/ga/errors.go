package ga

import "errors"

// ErrNotInitialized is returned by Run when the engine has never been
// initialized (for example a zero Engine value).
var ErrNotInitialized = errors.New("ga: engine not initialized")

// ErrInvalidConfig matches any *ConfigError via errors.Is.
var ErrInvalidConfig = &ConfigError{}

// ConfigError reports an engine configuration that violates the engine's
// invariants (non-positive counts, survivors not smaller than population, ...).
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "ga: invalid configuration"
	}
	return "ga: invalid configuration: " + e.Field + " " + e.Reason
}

func (e *ConfigError) Is(target error) bool {
	_, ok := target.(*ConfigError)
	return ok
}

// ShapeError reports a genome or chromosome buffer that does not match the
// configured shape. Genome primitives panic with a *ShapeError instead of
// reading or writing outside the addressed chromosome.
type ShapeError struct {
	Op     string
	Reason string
}

func (e *ShapeError) Error() string {
	return "ga: " + e.Op + ": " + e.Reason
}

func (e *ShapeError) Is(target error) bool {
	_, ok := target.(*ShapeError)
	return ok
}
