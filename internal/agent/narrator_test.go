package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"tidecraft.ai/internal/protocol"
	"tidecraft.ai/internal/sim/tuning"
	"tidecraft.ai/internal/sim/world"
)

type stubClient struct {
	resp Response
	err  error
	seen []Request
}

func (c *stubClient) CreateResponse(_ context.Context, req Request) (Response, error) {
	c.seen = append(c.seen, req)
	return c.resp, c.err
}

func testTelemetry(t *testing.T) world.Telemetry {
	t.Helper()
	s := world.NewWorld("t", 1, protocol.SchemaVersion, tuning.Defaults())
	return world.BuildTelemetry(s, "player", tuning.Defaults())
}

func TestFallbackNarration_Deterministic(t *testing.T) {
	tel := testTelemetry(t)
	diff := []string{"You now carry the storm lantern."}
	reasons := []string{"tide_blocks_low"}

	a := FallbackNarration(tel, diff, reasons)
	b := FallbackNarration(tel, diff, reasons)
	if a != b {
		t.Fatalf("fallback not deterministic:\n%s\n%s", a, b)
	}
	if !strings.Contains(a, "storm lantern") {
		t.Fatalf("diff missing from narration: %q", a)
	}
	if !strings.Contains(a, "tide_blocks_low") {
		t.Fatalf("rejection missing from narration: %q", a)
	}
}

func TestFallbackNarration_QuietTurn(t *testing.T) {
	out := FallbackNarration(testTelemetry(t), nil, nil)
	if !strings.Contains(out, "Nothing around you changes.") {
		t.Fatalf("quiet turn narration: %q", out)
	}
	if strings.Contains(out, "not possible") {
		t.Fatalf("phantom rejection clause: %q", out)
	}
}

func TestNarrate_NilClientUsesFallback(t *testing.T) {
	n := NewNarrator(nil, "m")
	tel := testTelemetry(t)
	got := n.Narrate(context.Background(), "look", tel, nil, nil)
	if got != FallbackNarration(tel, nil, nil) {
		t.Fatalf("offline narration diverged: %q", got)
	}
}

func TestNarrate_ServiceErrorFallsBack(t *testing.T) {
	client := &stubClient{err: errors.New("boom")}
	n := NewNarrator(client, "m")
	tel := testTelemetry(t)
	got := n.Narrate(context.Background(), "look", tel, nil, nil)
	if got != FallbackNarration(tel, nil, nil) {
		t.Fatalf("error path must fall back, got %q", got)
	}
}

func TestNarrate_UsesServiceOutput(t *testing.T) {
	client := &stubClient{resp: Response{ID: "r", OutputText: "  The quay smells of kelp.\n"}}
	n := NewNarrator(client, "m")
	got := n.Narrate(context.Background(), "sniff the air", testTelemetry(t), nil, nil)
	if got != "The quay smells of kelp." {
		t.Fatalf("narration = %q", got)
	}
	if len(client.seen) != 1 || client.seen[0].Model != "m" {
		t.Fatalf("request: %+v", client.seen)
	}
}
