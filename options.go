package rootcanvas

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ContentPolicy decides what happens to the last committed frame when a
// topology change forces a new surface.
type ContentPolicy string

const (
	// PolicyScale rescales the previous frame to the new bounds.
	PolicyScale ContentPolicy = "scale"
	// PolicyClear starts the new surface from black.
	PolicyClear ContentPolicy = "clear"
)

// Options configures a Wallpaper at open time. The zero value is usable;
// DefaultOptions spells the defaults out.
type Options struct {
	// Display overrides the X display to connect to. Empty means $DISPLAY.
	Display string `yaml:"display"`

	// Screen selects the screen index. Negative means the connection's
	// default screen.
	Screen int `yaml:"screen"`

	// PerMonitor exposes one viewport draw target per monitor on each Frame
	// instead of only the combined canvas.
	PerMonitor bool `yaml:"per_monitor"`

	// ForceNoCompositor skips compositor detection and always uses the
	// repaint-the-root install path.
	ForceNoCompositor bool `yaml:"force_no_compositor"`

	// OnReconfigure is the content policy when monitors change. Empty means
	// PolicyScale.
	OnReconfigure ContentPolicy `yaml:"on_reconfigure"`

	// LogLevel sets the facade logger level: debug, info, warn, error.
	// Empty keeps the current level.
	LogLevel string `yaml:"log_level"`
}

// DefaultOptions returns the options Open uses when given nil.
func DefaultOptions() *Options {
	return &Options{
		Screen:        -1,
		OnReconfigure: PolicyScale,
	}
}

// ValidationError reports which option field was rejected.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("options: %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validate checks field values. It does not touch the server; out-of-range
// screen indexes for a particular display surface at Open.
func (o *Options) Validate() error {
	switch o.OnReconfigure {
	case "", PolicyScale, PolicyClear:
	default:
		return &ValidationError{
			Field: "on_reconfigure",
			Err:   fmt.Errorf("must be %q or %q, got %q", PolicyScale, PolicyClear, o.OnReconfigure),
		}
	}
	switch o.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return &ValidationError{
			Field: "log_level",
			Err:   fmt.Errorf("unknown level %q", o.LogLevel),
		}
	}
	return nil
}

// policy resolves the effective reconfigure policy.
func (o *Options) policy() ContentPolicy {
	if o.OnReconfigure == "" {
		return PolicyScale
	}
	return o.OnReconfigure
}

// LoadOptions reads options from a YAML file, starting from the defaults and
// validating the result.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read options file: %w", err)
	}
	opts := DefaultOptions()
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("failed to parse options file %s: %w", path, err)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}
