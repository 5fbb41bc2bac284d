package versiongate

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Rules configures the gate. Zero fields take the values from DefaultRules.
type Rules struct {
	VersionVar      string `mapstructure:"version_var"`
	FreeThreadedVar string `mapstructure:"free_threaded_var"`
	Product         string `mapstructure:"product"`
	Interpreter     string `mapstructure:"interpreter"`
	MinSupported    string `mapstructure:"min_supported"`
	AdvisoryFrom    string `mapstructure:"advisory_from"`
	BindingCrate    string `mapstructure:"binding_crate"`
	MinBinding      string `mapstructure:"min_binding"`
}

// DefaultRules returns the rule table of the ChromaDB Rust bindings.
func DefaultRules() Rules {
	return Rules{
		VersionVar:      "PYO3_PYTHON_VERSION",
		FreeThreadedVar: "PYO3_GIL_DISABLED",
		Product:         "ChromaDB",
		Interpreter:     "Python",
		MinSupported:    "3.9",
		AdvisoryFrom:    "3.14",
		BindingCrate:    "pyo3",
		MinBinding:      "0.22",
	}
}

func (r *Rules) normalize() {
	def := DefaultRules()
	if r.VersionVar == "" {
		r.VersionVar = def.VersionVar
	}
	if r.FreeThreadedVar == "" {
		r.FreeThreadedVar = def.FreeThreadedVar
	}
	if r.Product == "" {
		r.Product = def.Product
	}
	if r.Interpreter == "" {
		r.Interpreter = def.Interpreter
	}
	if r.MinSupported == "" {
		r.MinSupported = def.MinSupported
	}
	if r.AdvisoryFrom == "" {
		r.AdvisoryFrom = def.AdvisoryFrom
	}
	if r.BindingCrate == "" {
		r.BindingCrate = def.BindingCrate
	}
	if r.MinBinding == "" {
		r.MinBinding = def.MinBinding
	}
}

type compiledRules struct {
	Rules

	minimum  Version
	tooOld   *semver.Constraints
	advisory *semver.Constraints
}

// compile turns the thresholds into constraints. The advisory line covers
// AdvisoryFrom up to, not including, the next major version.
func (r Rules) compile() (*compiledRules, error) {
	r.normalize()

	floor, err := semver.NewVersion(r.MinSupported)
	if err != nil {
		return nil, fmt.Errorf("invalid minimum supported version %q: %w", r.MinSupported, err)
	}
	from, err := semver.NewVersion(r.AdvisoryFrom)
	if err != nil {
		return nil, fmt.Errorf("invalid advisory version %q: %w", r.AdvisoryFrom, err)
	}

	tooOld, err := semver.NewConstraint(fmt.Sprintf("< %d.%d.0", floor.Major(), floor.Minor()))
	if err != nil {
		return nil, fmt.Errorf("build floor constraint: %w", err)
	}
	advisory, err := semver.NewConstraint(fmt.Sprintf(">= %d.%d.0, < %d.0.0", from.Major(), from.Minor(), from.Major()+1))
	if err != nil {
		return nil, fmt.Errorf("build advisory constraint: %w", err)
	}

	return &compiledRules{
		Rules:    r,
		minimum:  Version{Major: floor.Major(), Minor: floor.Minor()},
		tooOld:   tooOld,
		advisory: advisory,
	}, nil
}

func (c *compiledRules) skipNotice() string {
	return fmt.Sprintf("%s not set; skipping version check", c.VersionVar)
}

func (c *compiledRules) bindingNotice(v Version) string {
	return fmt.Sprintf("Building for %s %s. Ensure %s >= %s is used.", c.Interpreter, v, c.BindingCrate, c.MinBinding)
}

func (c *compiledRules) freeThreadedNotice(v Version) string {
	return fmt.Sprintf("Free-threaded %s detected. abi3 feature must be disabled for cp%d%dt wheels.", c.Interpreter, v.Major, v.Minor)
}
