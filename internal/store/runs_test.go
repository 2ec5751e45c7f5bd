package store

import (
	"testing"

	"github.com/route-beacon/bgpsim/internal/bgpcore"
)

func TestComputeRunID_Deterministic(t *testing.T) {
	cfg := bgpcore.Config{
		Nodes:    []string{"100", "200"},
		Links:    [][2]string{{"100", "200"}},
		OriginAS: "100",
		Scenario: bgpcore.ScenarioBaseline,
	}

	id1, err := ComputeRunID(cfg, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id2, err := ComputeRunID(cfg, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(id1) != 32 {
		t.Fatalf("expected 32-byte sha256 digest, got %d", len(id1))
	}
	for i := range id1 {
		if id1[i] != id2[i] {
			t.Fatal("run id differs for identical config and convergence steps")
		}
	}
}

func TestComputeRunID_DiffersOnConvergenceSteps(t *testing.T) {
	cfg := bgpcore.Config{
		Nodes:    []string{"100", "200"},
		Links:    [][2]string{{"100", "200"}},
		OriginAS: "100",
		Scenario: bgpcore.ScenarioBaseline,
	}

	id1, err := ComputeRunID(cfg, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id2, err := ComputeRunID(cfg, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	same := true
	for i := range id1 {
		if id1[i] != id2[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("run id should differ when convergence steps differ")
	}
}

func TestComputeRunID_DiffersOnScenario(t *testing.T) {
	base := bgpcore.Config{
		Nodes:    []string{"100", "200"},
		Links:    [][2]string{{"100", "200"}},
		OriginAS: "100",
	}
	baseline := base
	baseline.Scenario = bgpcore.ScenarioBaseline
	hijack := base
	hijack.Scenario = bgpcore.ScenarioHijack
	hijack.Hijacker = "200"

	id1, err := ComputeRunID(baseline, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id2, err := ComputeRunID(hijack, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	same := true
	for i := range id1 {
		if id1[i] != id2[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("run id should differ when scenario differs")
	}
}
