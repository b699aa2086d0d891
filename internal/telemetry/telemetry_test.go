package telemetry

import (
	"context"
	"testing"
)

func TestTracerBeforeSetup(t *testing.T) {
	tr := Tracer("test")
	if tr == nil {
		t.Fatal("Tracer should never be nil")
	}

	// Spans must be safe to use even when telemetry was never configured,
	// and must not record anything.
	_, span := tr.Start(context.Background(), "op")
	defer span.End()
	if span.IsRecording() {
		t.Error("Tracer before Setup should hand out non-recording spans")
	}
}
