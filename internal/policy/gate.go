package policy

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/spf13/afero"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
)

// DefaultPolicyPackage is the Rego package queried for deny and warn rules.
const DefaultPolicyPackage = "anticipate.policy"

// ViolationNotAutoActionable is reported for signals that never qualify.
const ViolationNotAutoActionable = "signal is not auto-actionable"

// Gate decides whether a signal may be acted on without the user.
// Evaluation is local; no network calls are made.
type Gate struct {
	mu            sync.RWMutex
	policies      []*PolicyFile
	policyPackage string
	now           func() time.Time
}

// GateConfig configures a Gate.
type GateConfig struct {
	// PoliciesDir holds the .rego files. Empty means no policies.
	PoliciesDir string
	// PolicyPackage defaults to DefaultPolicyPackage.
	PolicyPackage string
	// Fs defaults to the OS filesystem.
	Fs afero.Fs
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewGate loads policies and returns a ready gate.
func NewGate(cfg GateConfig) (*Gate, error) {
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.PolicyPackage == "" {
		cfg.PolicyPackage = DefaultPolicyPackage
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	var policies []*PolicyFile
	if cfg.PoliciesDir != "" {
		var err error
		policies, err = NewLoader(cfg.Fs, cfg.PoliciesDir).LoadAll()
		if err != nil {
			return nil, fmt.Errorf("load policies: %w", err)
		}
	}

	return &Gate{
		policies:      policies,
		policyPackage: cfg.PolicyPackage,
		now:           cfg.Now,
	}, nil
}

// NewGateWithPolicies creates a gate over explicit policies.
func NewGateWithPolicies(policies ...*PolicyFile) *Gate {
	return &Gate{
		policies:      policies,
		policyPackage: DefaultPolicyPackage,
		now:           time.Now,
	}
}

// PolicyNames returns the names of the loaded policies.
func (g *Gate) PolicyNames() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, len(g.policies))
	for i, p := range g.policies {
		names[i] = p.Name
	}
	return names
}

// AddPolicy adds Rego source at runtime after checking it compiles.
func (g *Gate) AddPolicy(name, content string) error {
	if err := ValidatePolicy(content); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.policies = append(g.policies, &PolicyFile{Name: name, Path: name + ".rego", Content: content})
	return nil
}

// Evaluate decides on one signal. Signals not flagged auto-actionable are
// always denied. With no policies loaded every auto-actionable signal is
// allowed; otherwise any message from a deny rule blocks the action and
// messages from warn rules are attached.
func (g *Gate) Evaluate(ctx context.Context, sig signal.Signal, counts map[signal.Severity]int) (*Decision, error) {
	now := g.now()
	decision := &Decision{
		DecisionID:  uuid.NewString(),
		PolicyPath:  g.policyPackage,
		SignalID:    sig.ID,
		Result:      ResultAllow,
		EvaluatedAt: now.UTC(),
	}
	if !sig.AutoActionable {
		decision.Result = ResultDeny
		decision.Violations = []string{ViolationNotAutoActionable}
		return decision, nil
	}

	g.mu.RLock()
	policies := g.policies
	g.mu.RUnlock()
	if len(policies) == 0 {
		return decision, nil
	}

	modules := make([]func(*rego.Rego), len(policies))
	for i, p := range policies {
		modules[i] = rego.Module(p.Path, p.Content)
	}

	active := make(map[string]int, len(counts))
	for sev, n := range counts {
		active[string(sev)] = n
	}
	input := Input{
		Signal:  sig,
		Context: InputContext{Now: now, Hour: now.Hour(), ActiveCounts: active},
	}

	violations, err := g.querySet(ctx, input, "deny", modules)
	if err != nil {
		return nil, fmt.Errorf("query deny rules: %w", err)
	}
	warnings, err := g.querySet(ctx, input, "warn", modules)
	if err != nil {
		warnings = nil
	}

	decision.Warnings = warnings
	if len(violations) > 0 {
		decision.Result = ResultDeny
		decision.Violations = violations
	}
	return decision, nil
}

// querySet evaluates a set rule and returns its string members.
func (g *Gate) querySet(ctx context.Context, input any, ruleName string, modules []func(*rego.Rego)) ([]string, error) {
	query := fmt.Sprintf("data.%s.%s", g.policyPackage, ruleName)

	opts := []func(*rego.Rego){
		rego.Query(query),
		rego.Input(input),
	}
	opts = append(opts, modules...)

	rs, err := rego.New(opts...).Eval(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "undefined") {
			return nil, nil
		}
		return nil, err
	}

	var results []string
	for _, result := range rs {
		for _, expr := range result.Expressions {
			set, ok := expr.Value.([]any)
			if !ok {
				continue
			}
			for _, item := range set {
				if s, ok := item.(string); ok {
					results = append(results, s)
				}
			}
		}
	}
	return results, nil
}

// ValidatePolicy reports whether content is valid Rego.
func ValidatePolicy(content string) error {
	_, err := rego.New(
		rego.Query("data"),
		rego.Module("validation.rego", content),
	).PrepareForEval(context.Background())
	if err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}
	return nil
}
