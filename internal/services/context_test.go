package services_test

import (
	"context"
	"testing"

	"streamer/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "face")
	ctx = services.WithRequestID(ctx, "req-123")
	ctx = services.WithConversationID(ctx, "conv-9")

	if stage, ok := services.StageFromContext(ctx); !ok || stage != "face" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
	if cid, ok := services.ConversationIDFromContext(ctx); !ok || cid != "conv-9" {
		t.Fatalf("unexpected conversation id: %v %v", cid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithConversationID(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.ConversationIDFromContext(ctx); ok {
		t.Fatal("expected no conversation value")
	}
}
