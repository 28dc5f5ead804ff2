// Package policy decides whether a request path may proceed given the
// identity reconstructed for that request.
//
// Rules are evaluated in order and the first match wins. A path matched by no
// rule is allowed.
package policy

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/trackerpro/tracker-auth/internal/core/domain"
)

// Requirement is what a rule demands of the caller.
type Requirement uint8

const (
	Public Requirement = iota + 1
	Authenticated
	Admin
)

func (r Requirement) String() string {
	switch r {
	case Public:
		return "PUBLIC"
	case Authenticated:
		return "AUTHENTICATED"
	case Admin:
		return "ADMIN"
	default:
		return "UNKNOWN"
	}
}

// Decision is the outcome of evaluating a request.
type Decision uint8

const (
	Allow Decision = iota + 1
	// Challenge means the path needs an identity and none was presented.
	Challenge
	// Deny means an identity was presented but its role is insufficient.
	Deny
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Challenge:
		return "challenge"
	case Deny:
		return "deny"
	default:
		return "unknown"
	}
}

// Err maps the decision to the domain error the transport layer renders.
// Allow maps to nil.
func (d Decision) Err() error {
	switch d {
	case Challenge:
		return domain.ErrAuthenticationRequired
	case Deny:
		return domain.ErrForbidden
	default:
		return nil
	}
}

// grants lists the requirements each role satisfies.
var grants = map[domain.Role]map[Requirement]bool{
	domain.RoleUser:  {Public: true, Authenticated: true},
	domain.RoleAdmin: {Public: true, Authenticated: true, Admin: true},
}

// Rule pairs a path pattern with a requirement. Patterns use glob syntax with
// '/' as separator: "*" stays within a segment, "**" spans segments. A
// pattern ending in "/**" also matches the bare prefix ("/css/**" matches "/css").
type Rule struct {
	Pattern     string
	Requirement Requirement
}

type compiledRule struct {
	Rule
	matcher glob.Glob
	bare    string
}

func (r compiledRule) match(path string) bool {
	return path == r.bare || r.matcher.Match(path)
}

// Evaluator holds a compiled, immutable rule table and is safe for concurrent use.
type Evaluator struct {
	rules []compiledRule
}

// NewEvaluator compiles rules in the order given.
func NewEvaluator(rules []Rule) (*Evaluator, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		if r.Requirement < Public || r.Requirement > Admin {
			return nil, fmt.Errorf("policy: rule %q: invalid requirement %d", r.Pattern, r.Requirement)
		}
		g, err := glob.Compile(r.Pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("policy: rule %q: %w", r.Pattern, err)
		}
		cr := compiledRule{Rule: r, matcher: g}
		if prefix, ok := strings.CutSuffix(r.Pattern, "/**"); ok {
			cr.bare = prefix
			if cr.bare == "" {
				cr.bare = "/"
			}
		}
		compiled = append(compiled, cr)
	}
	return &Evaluator{rules: compiled}, nil
}

// MustNewEvaluator is like NewEvaluator but panics on an invalid table.
func MustNewEvaluator(rules []Rule) *Evaluator {
	e, err := NewEvaluator(rules)
	if err != nil {
		panic(err)
	}
	return e
}

// Match returns the first rule matching path.
func (e *Evaluator) Match(path string) (Rule, bool) {
	for _, r := range e.rules {
		if r.match(path) {
			return r.Rule, true
		}
	}
	return Rule{}, false
}

// Evaluate decides whether a request for path may proceed. principal is nil
// when the request carries no identity.
func (e *Evaluator) Evaluate(path string, principal *domain.Principal) Decision {
	rule, ok := e.Match(path)
	if !ok || rule.Requirement == Public {
		return Allow
	}
	if principal == nil || !principal.Complete() {
		return Challenge
	}
	if grants[principal.Role][rule.Requirement] {
		return Allow
	}
	return Deny
}

// DefaultRules is the application's rule table.
func DefaultRules() []Rule {
	public := []string{
		"/", "/login", "/register", "/success", "/userlogin", "/forget", "/logout",
		"/api/auth/**", "/css/**", "/js/**", "/images/**", "/static/**",
		"/health", "/health/ready", "/metrics", "/swagger/**",
	}
	authenticated := []string{"/dashboard", "/profile", "/reports", "/settings"}
	admin := []string{"/api/admin/**"}

	rules := make([]Rule, 0, len(public)+len(authenticated)+len(admin))
	for _, p := range public {
		rules = append(rules, Rule{Pattern: p, Requirement: Public})
	}
	for _, p := range authenticated {
		rules = append(rules, Rule{Pattern: p, Requirement: Authenticated})
	}
	for _, p := range admin {
		rules = append(rules, Rule{Pattern: p, Requirement: Admin})
	}
	return rules
}
