package governance

import (
	"context"
	"testing"

	"github.com/ormasoftchile/dialogos/pkg/service"
)

func TestCheckServiceDenylist(t *testing.T) {
	g, err := NewGuard(Policy{DeniedServices: []string{"shell.exec"}})
	if err != nil {
		t.Fatalf("NewGuard: %v", err)
	}
	if err := g.CheckService("shell.exec"); err == nil {
		t.Error("expected deny for shell.exec")
	}
	if err := g.CheckService("hospital.book"); err != nil {
		t.Errorf("expected allow for hospital.book, got %v", err)
	}
}

func TestCheckServiceAllowlist(t *testing.T) {
	g, err := NewGuard(Policy{AllowedServices: []string{"hospital.book"}})
	if err != nil {
		t.Fatalf("NewGuard: %v", err)
	}
	if err := g.CheckService("hospital.book"); err != nil {
		t.Errorf("expected allow, got %v", err)
	}
	if err := g.CheckService("restaurant.reserve"); err == nil {
		t.Error("expected deny for service not in allowlist")
	}
}

func TestRedact(t *testing.T) {
	g, err := NewGuard(Policy{Redactions: []RedactionRule{{Pattern: `\d{4}-\d{4}`, Replace: "[redacted]"}}})
	if err != nil {
		t.Fatalf("NewGuard: %v", err)
	}
	got := g.Redact("card 1234-5678 on file")
	if got != "card [redacted] on file" {
		t.Errorf("got %q", got)
	}
}

func TestWrapDeniesBeforeDelegating(t *testing.T) {
	calls := 0
	inner := service.NewRegistry()
	inner.Register("shell.exec", func(ctx context.Context, args []service.Value, call service.CallContext) service.Value {
		calls++
		return "ran"
	})
	g, _ := NewGuard(Policy{DeniedServices: []string{"shell.exec"}})
	wrapped := Wrap(inner, g)

	result := wrapped.Call(context.Background(), "shell.exec", nil, service.CallContext{})
	if calls != 0 {
		t.Error("denied service must not reach the inner handler")
	}
	m, ok := result.(map[string]any)
	if !ok || m["error"] == nil {
		t.Errorf("expected error value, got %#v", result)
	}
}
