// Package examples holds a static catalog of named simulation
// topologies, served verbatim by GET /examples — a Go port of
// app/routes/examples.py's get_examples.
package examples

import "github.com/route-beacon/bgpsim/internal/validate"

// Example is one named, described, ready-to-run configuration.
type Example struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Config      validate.Request `json:"config"`
}

// Catalog returns the full set of example topologies, keyed by slug.
func Catalog() map[string]Example {
	return map[string]Example{
		"simple_line": {
			Name:        "Simple Line Topology",
			Description: "Three ASes in a line",
			Config: validate.Request{
				Nodes:    []string{"100", "200", "300"},
				Links:    [][]string{{"100", "200"}, {"200", "300"}},
				Prefixes: []string{"10.0.1.0/24"},
				OriginAS: "100",
				Scenario: "baseline",
			},
		},
		"hijack_scenario": {
			Name:        "BGP Hijack Attack",
			Description: "AS300 hijacks AS100's prefix",
			Config: validate.Request{
				Nodes:    []string{"100", "200", "300", "400"},
				Links:    [][]string{{"100", "200"}, {"200", "300"}, {"200", "400"}},
				Prefixes: []string{"10.0.1.0/24"},
				OriginAS: "100",
				Scenario: "hijack",
				Hijacker: "300",
			},
		},
		"policy_preference": {
			Name:        "Local Preference Policy",
			Description: "AS200 prefers AS100 over AS300",
			Config: validate.Request{
				Nodes:    []string{"100", "200", "300"},
				Links:    [][]string{{"100", "200"}, {"200", "300"}, {"100", "300"}},
				Prefixes: []string{"10.0.1.0/24"},
				OriginAS: "100",
				Scenario: "baseline",
				Policies: map[string]validate.PolicyInput{
					"200": {LocalPref: map[string]int{"100": 150, "300": 100}},
				},
			},
		},
		"route_flap": {
			Name:        "Route Flap Test",
			Description: "Origin flaps the route multiple times",
			Config: validate.Request{
				Nodes:     []string{"100", "200", "300", "400"},
				Links:     [][]string{{"100", "200"}, {"200", "300"}, {"300", "400"}},
				Prefixes:  []string{"10.0.1.0/24"},
				OriginAS:  "100",
				Scenario:  "route_flap",
				FlapCount: 3,
			},
		},
		"mesh_topology": {
			Name:        "Full Mesh",
			Description: "Four ASes fully connected",
			Config: validate.Request{
				Nodes: []string{"100", "200", "300", "400"},
				Links: [][]string{
					{"100", "200"}, {"100", "300"}, {"100", "400"},
					{"200", "300"}, {"200", "400"}, {"300", "400"},
				},
				Prefixes: []string{"10.0.1.0/24"},
				OriginAS: "100",
				Scenario: "baseline",
			},
		},
		"as_path_prepend": {
			Name:        "AS Path Prepend",
			Description: "AS200 prepends to de-prefer one path",
			Config: validate.Request{
				Nodes:    []string{"100", "200", "300"},
				Links:    [][]string{{"100", "200"}, {"200", "300"}, {"100", "300"}},
				Prefixes: []string{"10.0.3.0/24"},
				OriginAS: "100",
				Scenario: "baseline",
				Policies: map[string]validate.PolicyInput{
					"200": {ASPathPrepend: 2},
				},
			},
		},
		"export_filtering": {
			Name:        "Selective Export",
			Description: "AS200 denies exporting a specific prefix",
			Config: validate.Request{
				Nodes:    []string{"100", "200", "300"},
				Links:    [][]string{{"100", "200"}, {"200", "300"}},
				Prefixes: []string{"10.0.4.0/24", "10.0.5.0/24"},
				OriginAS: "100",
				Scenario: "baseline",
				Policies: map[string]validate.PolicyInput{
					"200": {ExportFilters: [][]string{{"deny", "10.0.4.0/24"}}},
				},
			},
		},
		"ring_topology": {
			Name:        "Ring Topology",
			Description: "Five ASes in a ring",
			Config: validate.Request{
				Nodes: []string{"100", "200", "300", "400", "500"},
				Links: [][]string{
					{"100", "200"}, {"200", "300"}, {"300", "400"}, {"400", "500"}, {"500", "100"},
				},
				Prefixes: []string{"10.0.7.0/24"},
				OriginAS: "100",
				Scenario: "baseline",
			},
		},
	}
}
