package versiongate

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Outcome is the decision the gate reached.
type Outcome int

const (
	// OutcomePass means the version is supported and needs no attention.
	OutcomePass Outcome = iota
	// OutcomeSkipped means no usable version was found.
	OutcomeSkipped
	// OutcomeAdvisory means the build continues with warnings.
	OutcomeAdvisory
	// OutcomeFatal means the build must stop.
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomePass:
		return "pass"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeAdvisory:
		return "advisory"
	case OutcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ErrVersionTooOld is matched by every *TooOldError.
var ErrVersionTooOld = errors.New("interpreter version below supported minimum")

// TooOldError reports an interpreter below the supported floor.
type TooOldError struct {
	Product     string
	Interpreter string
	Found       Version
	Minimum     Version
}

func (e *TooOldError) Error() string {
	return fmt.Sprintf("%s requires %s >= %s, found %s", e.Product, e.Interpreter, e.Minimum, e.Found)
}

func (e *TooOldError) Unwrap() error { return ErrVersionTooOld }

// Result is what a single evaluation observed and decided.
type Result struct {
	Outcome Outcome
	// Raw is the version variable as read; empty when unset.
	Raw string
	// Version is valid only when Parsed is true.
	Version    Version
	Parsed     bool
	Advisories []string
	// Err is a *TooOldError when Outcome is OutcomeFatal, nil otherwise.
	Err error
}

// Gate evaluates the target interpreter version against a rule table.
type Gate struct {
	rules  *compiledRules
	lookup LookupFunc
	logger *zap.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger makes the gate log its decisions at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New builds a gate reading variables through lookup. It fails only when a
// threshold in rules is not a valid version.
func New(rules Rules, lookup LookupFunc, opts ...Option) (*Gate, error) {
	compiled, err := rules.compile()
	if err != nil {
		return nil, err
	}

	g := &Gate{
		rules:  compiled,
		lookup: lookup,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Rules returns the normalized rule table the gate applies.
func (g *Gate) Rules() Rules {
	return g.rules.Rules
}

// Evaluate reads the environment once and decides. It never exits the process.
func (g *Gate) Evaluate() Result {
	raw := g.lookup.get(g.rules.VersionVar)
	if raw == "" {
		g.logger.Debug("version variable not set", zap.String("var", g.rules.VersionVar))
		return Result{
			Outcome:    OutcomeSkipped,
			Advisories: []string{g.rules.skipNotice()},
		}
	}

	v, ok := ParseVersion(raw)
	if !ok {
		g.logger.Debug("version not parsable, skipping", zap.String("raw", raw))
		return Result{Outcome: OutcomeSkipped, Raw: raw}
	}

	res := Result{Outcome: OutcomePass, Raw: raw, Version: v, Parsed: true}
	sv := v.semver()

	if g.rules.advisory.Check(sv) {
		res.Outcome = OutcomeAdvisory
		res.Advisories = append(res.Advisories, g.rules.bindingNotice(v))

		if g.lookup.get(g.rules.FreeThreadedVar) == "1" {
			res.Advisories = append(res.Advisories, g.rules.freeThreadedNotice(v))
		}
	}

	if g.rules.tooOld.Check(sv) {
		res.Outcome = OutcomeFatal
		res.Err = &TooOldError{
			Product:     g.rules.Product,
			Interpreter: g.rules.Interpreter,
			Found:       v,
			Minimum:     g.rules.minimum,
		}
	}

	g.logger.Debug("version evaluated",
		zap.String("raw", raw),
		zap.Stringer("version", v),
		zap.Stringer("outcome", res.Outcome),
		zap.Int("advisories", len(res.Advisories)),
	)
	return res
}

// Check evaluates and writes the advisories to sink. The returned error
// wraps a *TooOldError when the build must stop, joined with any sink error.
func (g *Gate) Check(sink Sink) error {
	res := g.Evaluate()

	var sinkErr error
	for _, msg := range res.Advisories {
		if err := sink.Warn(msg); err != nil && sinkErr == nil {
			sinkErr = fmt.Errorf("write advisory: %w", err)
		}
	}
	return errors.Join(res.Err, sinkErr)
}
