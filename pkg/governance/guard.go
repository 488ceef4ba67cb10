// Package governance wraps a service.Handler with an allow/deny policy
// over service names and regex-based redaction of returned values, so a
// script author's Call statements can be constrained without the
// interpreter itself knowing about policy.
package governance

import (
	"context"
	"fmt"
	"regexp"

	"github.com/ormasoftchile/dialogos/pkg/service"
)

// Policy is a service-name allow/deny list plus redaction rules applied
// to every call's result before it reaches the script.
type Policy struct {
	AllowedServices []string
	DeniedServices  []string
	Redactions      []RedactionRule
}

// RedactionRule replaces every match of Pattern in a stringified result
// with Replace.
type RedactionRule struct {
	Pattern string
	Replace string
}

// Guard evaluates a Policy. The zero Guard is permissive.
type Guard struct {
	allowed    []string
	denied     []string
	redactions []compiledRedaction
}

type compiledRedaction struct {
	pattern *regexp.Regexp
	replace string
}

// NewGuard compiles policy into a Guard. An invalid redaction regex is
// returned as an error rather than silently dropped.
func NewGuard(policy Policy) (*Guard, error) {
	g := &Guard{allowed: policy.AllowedServices, denied: policy.DeniedServices}
	for _, r := range policy.Redactions {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile redaction pattern %q: %w", r.Pattern, err)
		}
		g.redactions = append(g.redactions, compiledRedaction{pattern: re, replace: r.Replace})
	}
	return g, nil
}

// CheckService validates name against the allow/deny lists. Deny takes
// precedence over allow; an empty allowlist permits anything not denied.
func (g *Guard) CheckService(name string) error {
	for _, denied := range g.denied {
		if name == denied {
			return fmt.Errorf("service %q is denied by governance policy", name)
		}
	}
	if len(g.allowed) > 0 {
		for _, allowed := range g.allowed {
			if name == allowed {
				return nil
			}
		}
		return fmt.Errorf("service %q is not in the governance allowlist", name)
	}
	return nil
}

// Redact applies every compiled redaction rule to s in order.
func (g *Guard) Redact(s string) string {
	for _, r := range g.redactions {
		s = r.pattern.ReplaceAllString(s, r.replace)
	}
	return s
}

// guardedHandler decorates a service.Handler, enforcing a Guard's policy
// on every Call before delegating, and redacting string results after.
type guardedHandler struct {
	inner service.Handler
	guard *Guard
}

// Wrap returns a service.Handler that enforces guard's policy around
// inner. A Call to a denied service never reaches inner.
func Wrap(inner service.Handler, guard *Guard) service.Handler {
	return &guardedHandler{inner: inner, guard: guard}
}

func (h *guardedHandler) Call(ctx context.Context, name string, args []service.Value, call service.CallContext) service.Value {
	if err := h.guard.CheckService(name); err != nil {
		return map[string]any{"error": err.Error()}
	}
	result := h.inner.Call(ctx, name, args, call)
	if s, ok := result.(string); ok {
		return h.guard.Redact(s)
	}
	if m, ok := result.(map[string]any); ok {
		redacted := make(map[string]any, len(m))
		for k, v := range m {
			if s, ok := v.(string); ok {
				redacted[k] = h.guard.Redact(s)
			} else {
				redacted[k] = v
			}
		}
		return redacted
	}
	return result
}
