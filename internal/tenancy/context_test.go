package tenancy

import (
	"context"
	"testing"
)

func TestOrgIDRoundTrip(t *testing.T) {
	ctx := WithOrgID(context.Background(), "org-123")
	got, ok := OrgIDFromContext(ctx)
	if !ok || got != "org-123" {
		t.Fatalf("expected org-123, got %q ok=%v", got, ok)
	}
}

func TestOrgIDMissing(t *testing.T) {
	if _, ok := OrgIDFromContext(context.Background()); ok {
		t.Fatal("expected no org id on empty context")
	}
}

func TestOrgIDEmptyValue(t *testing.T) {
	ctx := WithOrgID(context.Background(), "")
	if _, ok := OrgIDFromContext(ctx); ok {
		t.Fatal("expected empty org id to be treated as absent")
	}
}
