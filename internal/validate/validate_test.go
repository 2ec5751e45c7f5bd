package validate

import "testing"

func defaultLimits() Limits {
	return Limits{MaxNodes: 100, MaxPrefixes: 50}
}

func TestConfig_MinimalRequestGetsDefaults(t *testing.T) {
	req := Request{Nodes: []string{"100", "200"}, Links: [][]string{{"100", "200"}}}
	cfg, err := Config(req, defaultLimits())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OriginAS != "100" {
		t.Errorf("expected origin_as to default to first node, got %q", cfg.OriginAS)
	}
	if cfg.Scenario != "baseline" {
		t.Errorf("expected scenario to default to baseline, got %q", cfg.Scenario)
	}
	if len(cfg.Prefixes) != 1 || cfg.Prefixes[0] != "10.0.1.0/24" {
		t.Errorf("expected default prefix, got %v", cfg.Prefixes)
	}
}

func TestConfig_EmptyNodesRejected(t *testing.T) {
	_, err := Config(Request{}, defaultLimits())
	if err == nil {
		t.Fatal("expected error for empty nodes")
	}
}

func TestConfig_TooManyNodesRejected(t *testing.T) {
	nodes := make([]string, 5)
	for i := range nodes {
		nodes[i] = string(rune('a' + i))
	}
	_, err := Config(Request{Nodes: nodes}, Limits{MaxNodes: 2, MaxPrefixes: 50})
	if err == nil {
		t.Fatal("expected error for too many nodes")
	}
}

func TestConfig_DuplicateNodeRejected(t *testing.T) {
	req := Request{Nodes: []string{"100", "100"}}
	_, err := Config(req, defaultLimits())
	if err == nil {
		t.Fatal("expected error for duplicate node")
	}
}

func TestConfig_LinkReferencingUnknownNodeRejected(t *testing.T) {
	req := Request{Nodes: []string{"100", "200"}, Links: [][]string{{"100", "999"}}}
	_, err := Config(req, defaultLimits())
	if err == nil {
		t.Fatal("expected error for link to unknown node")
	}
}

func TestConfig_InvalidPrefixRejected(t *testing.T) {
	req := Request{Nodes: []string{"100"}, Prefixes: []string{"not-a-prefix"}}
	_, err := Config(req, defaultLimits())
	if err == nil {
		t.Fatal("expected error for invalid prefix")
	}
}

func TestConfig_OriginASNotInNodesRejected(t *testing.T) {
	req := Request{Nodes: []string{"100"}, OriginAS: "999"}
	_, err := Config(req, defaultLimits())
	if err == nil {
		t.Fatal("expected error for origin_as not in nodes")
	}
}

func TestConfig_UnknownScenarioRejected(t *testing.T) {
	req := Request{Nodes: []string{"100"}, Scenario: "not-a-scenario"}
	_, err := Config(req, defaultLimits())
	if err == nil {
		t.Fatal("expected error for unknown scenario")
	}
}

func TestConfig_HijackWithoutHijackerRejected(t *testing.T) {
	req := Request{Nodes: []string{"100", "200"}, Scenario: "hijack"}
	_, err := Config(req, defaultLimits())
	if err == nil {
		t.Fatal("expected error for hijack scenario without hijacker")
	}
}

func TestConfig_HijackerNotInNodesRejected(t *testing.T) {
	req := Request{Nodes: []string{"100", "200"}, Scenario: "hijack", Hijacker: "999"}
	_, err := Config(req, defaultLimits())
	if err == nil {
		t.Fatal("expected error for hijacker not in nodes")
	}
}

func TestConfig_RouteFlapDefaultsFlapCount(t *testing.T) {
	req := Request{Nodes: []string{"100"}, Scenario: "route_flap"}
	cfg, err := Config(req, defaultLimits())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.FlapCount != 3 {
		t.Errorf("expected default flap_count 3, got %d", cfg.FlapCount)
	}
}

func TestConfig_RouteFlapCountOutOfRangeRejected(t *testing.T) {
	req := Request{Nodes: []string{"100"}, Scenario: "route_flap", FlapCount: 11}
	_, err := Config(req, defaultLimits())
	if err == nil {
		t.Fatal("expected error for flap_count out of range")
	}
}

func TestConfig_PolicyForUnknownASRejected(t *testing.T) {
	req := Request{
		Nodes:    []string{"100"},
		Policies: map[string]PolicyInput{"999": {}},
	}
	_, err := Config(req, defaultLimits())
	if err == nil {
		t.Fatal("expected error for policy on unknown AS")
	}
}

func TestConfig_PolicyLocalPrefNegativeRejected(t *testing.T) {
	req := Request{
		Nodes:    []string{"100", "200"},
		Policies: map[string]PolicyInput{"100": {LocalPref: map[string]int{"200": -1}}},
	}
	_, err := Config(req, defaultLimits())
	if err == nil {
		t.Fatal("expected error for negative local_pref")
	}
}

func TestConfig_PolicyExportFilterBadActionRejected(t *testing.T) {
	req := Request{
		Nodes: []string{"100"},
		Policies: map[string]PolicyInput{
			"100": {ExportFilters: [][]string{{"allow", "10.0.0.0/24"}}},
		},
	}
	_, err := Config(req, defaultLimits())
	if err == nil {
		t.Fatal("expected error for invalid filter action")
	}
}

func TestConfig_PolicyASPathPrependOutOfRangeRejected(t *testing.T) {
	req := Request{
		Nodes:    []string{"100"},
		Policies: map[string]PolicyInput{"100": {ASPathPrepend: 11}},
	}
	_, err := Config(req, defaultLimits())
	if err == nil {
		t.Fatal("expected error for as_path_prepend out of range")
	}
}

func TestConfig_ValidPolicyRoundTrips(t *testing.T) {
	req := Request{
		Nodes: []string{"100", "200"},
		Links: [][]string{{"100", "200"}},
		Policies: map[string]PolicyInput{
			"200": {
				LocalPref:     map[string]int{"100": 150},
				ExportFilters: [][]string{{"deny", "10.0.4.0/24"}},
				ASPathPrepend: 2,
			},
		},
	}
	cfg, err := Config(req, defaultLimits())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pc, ok := cfg.Policies["200"]
	if !ok {
		t.Fatal("expected policy for AS200 to be present")
	}
	if pc.LocalPref["100"] != 150 {
		t.Errorf("expected local_pref 150, got %d", pc.LocalPref["100"])
	}
	if pc.ASPathPrepend != 2 {
		t.Errorf("expected as_path_prepend 2, got %d", pc.ASPathPrepend)
	}
	if len(pc.ExportFilters) != 1 || pc.ExportFilters[0].Prefix != "10.0.4.0/24" {
		t.Errorf("expected one export filter for 10.0.4.0/24, got %v", pc.ExportFilters)
	}
}
