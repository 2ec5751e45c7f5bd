// Package validate normalizes and validates simulation configurations
// submitted over HTTP, turning a loosely-typed request body into a
// bgpcore.Config the core can run.
package validate

import (
	"fmt"
	"net"
	"strings"

	"github.com/route-beacon/bgpsim/internal/bgpcore"
)

// ValidationError reports a malformed request configuration. The HTTP
// adapter type-switches on this to choose 400 over 500, mirroring the
// original service's split between ValidationError and a bare failure.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func errorf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Request is the wire shape of a /simulate or /validate request body.
type Request struct {
	Nodes     []string                `json:"nodes"`
	Links     [][]string              `json:"links"`
	Prefixes  []string                `json:"prefixes,omitempty"`
	OriginAS  string                  `json:"origin_as,omitempty"`
	Scenario  string                  `json:"scenario,omitempty"`
	Hijacker  string                  `json:"hijacker,omitempty"`
	FlapCount int                     `json:"flap_count,omitempty"`
	Policies  map[string]PolicyInput  `json:"policies,omitempty"`
	MaxSteps  int                     `json:"max_steps,omitempty"`
}

// PolicyInput is the wire shape of one AS's policy overrides.
type PolicyInput struct {
	LocalPref     map[string]int `json:"local_pref,omitempty"`
	ExportFilters [][]string     `json:"export_filters,omitempty"`
	ASPathPrepend int            `json:"as_path_prepend,omitempty"`
}

// Limits bounds what Config will accept, sourced from internal/config's
// LimitsConfig (spec.md §6: nodes <= 100, prefixes <= 50).
type Limits struct {
	MaxNodes    int
	MaxPrefixes int
}

// Config validates req against limits and returns a normalized
// bgpcore.Config, or a *ValidationError describing the first problem
// found. Field order mirrors app/utils/validators.py's validate_config.
func Config(req Request, limits Limits) (bgpcore.Config, error) {
	if len(req.Nodes) == 0 {
		return bgpcore.Config{}, errorf("'nodes' must be a non-empty list")
	}
	if limits.MaxNodes > 0 && len(req.Nodes) > limits.MaxNodes {
		return bgpcore.Config{}, errorf("too many nodes (max: %d)", limits.MaxNodes)
	}

	nodeSet := make(map[string]struct{}, len(req.Nodes))
	for _, n := range req.Nodes {
		if n == "" {
			return bgpcore.Config{}, errorf("node identifiers must be non-empty strings")
		}
		if _, dup := nodeSet[n]; dup {
			return bgpcore.Config{}, errorf("duplicate node %q", n)
		}
		nodeSet[n] = struct{}{}
	}

	links := make([][2]string, 0, len(req.Links))
	for _, link := range req.Links {
		if len(link) != 2 {
			return bgpcore.Config{}, errorf("link %v must be a list of 2 elements", link)
		}
		if _, ok := nodeSet[link[0]]; !ok {
			return bgpcore.Config{}, errorf("link %v references non-existent node %q", link, link[0])
		}
		if _, ok := nodeSet[link[1]]; !ok {
			return bgpcore.Config{}, errorf("link %v references non-existent node %q", link, link[1])
		}
		links = append(links, [2]string{link[0], link[1]})
	}

	prefixes := req.Prefixes
	if len(prefixes) == 0 {
		prefixes = []string{"10.0.1.0/24"}
	}
	if limits.MaxPrefixes > 0 && len(prefixes) > limits.MaxPrefixes {
		return bgpcore.Config{}, errorf("too many prefixes (max: %d)", limits.MaxPrefixes)
	}
	for _, p := range prefixes {
		if !isValidPrefix(p) {
			return bgpcore.Config{}, errorf("invalid prefix format: %q", p)
		}
	}

	originAS := req.OriginAS
	if originAS == "" {
		originAS = req.Nodes[0]
	}
	if _, ok := nodeSet[originAS]; !ok {
		return bgpcore.Config{}, errorf("origin_as %q not in nodes list", originAS)
	}

	scenario := req.Scenario
	if scenario == "" {
		scenario = bgpcore.ScenarioBaseline
	}
	switch scenario {
	case bgpcore.ScenarioBaseline, bgpcore.ScenarioHijack, bgpcore.ScenarioRouteFlap:
	default:
		return bgpcore.Config{}, errorf("invalid scenario %q, must be one of baseline, hijack, route_flap", scenario)
	}

	if scenario == bgpcore.ScenarioHijack {
		if req.Hijacker == "" {
			return bgpcore.Config{}, errorf("'hijacker' field required for hijack scenario")
		}
		if _, ok := nodeSet[req.Hijacker]; !ok {
			return bgpcore.Config{}, errorf("hijacker %q not in nodes list", req.Hijacker)
		}
	}

	flapCount := req.FlapCount
	if scenario == bgpcore.ScenarioRouteFlap {
		if flapCount == 0 {
			flapCount = 3
		}
		if flapCount < 1 || flapCount > 10 {
			return bgpcore.Config{}, errorf("flap_count must be an integer between 1 and 10")
		}
	}

	policies := make(map[string]bgpcore.PolicyConfig, len(req.Policies))
	for asn, in := range req.Policies {
		if _, ok := nodeSet[asn]; !ok {
			return bgpcore.Config{}, errorf("policy for AS %q references non-existent node", asn)
		}

		localPref := make(map[string]int, len(in.LocalPref))
		for neighbor, pref := range in.LocalPref {
			if _, ok := nodeSet[neighbor]; !ok {
				return bgpcore.Config{}, errorf("local_pref references non-existent neighbor %q", neighbor)
			}
			if pref < 0 {
				return bgpcore.Config{}, errorf("local_pref value must be a non-negative integer")
			}
			localPref[neighbor] = pref
		}

		filters := make([]bgpcore.ExportFilter, 0, len(in.ExportFilters))
		for _, rule := range in.ExportFilters {
			if len(rule) != 2 {
				return bgpcore.Config{}, errorf("export_filter rule must be [action, prefix]")
			}
			action, prefix := rule[0], rule[1]
			var a bgpcore.FilterAction
			switch action {
			case "deny":
				a = bgpcore.FilterDeny
			case "permit":
				a = bgpcore.FilterPermit
			default:
				return bgpcore.Config{}, errorf("filter action must be 'deny' or 'permit', got %q", action)
			}
			filters = append(filters, bgpcore.ExportFilter{Action: a, Prefix: prefix})
		}

		if in.ASPathPrepend < 0 || in.ASPathPrepend > 10 {
			return bgpcore.Config{}, errorf("as_path_prepend must be an integer between 0 and 10")
		}

		policies[asn] = bgpcore.PolicyConfig{
			LocalPref:     localPref,
			ExportFilters: filters,
			ASPathPrepend: in.ASPathPrepend,
		}
	}

	return bgpcore.Config{
		Nodes:     req.Nodes,
		Links:     links,
		Prefixes:  prefixes,
		OriginAS:  originAS,
		Scenario:  scenario,
		Hijacker:  req.Hijacker,
		FlapCount: flapCount,
		Policies:  policies,
		MaxSteps:  req.MaxSteps,
	}, nil
}

func isValidPrefix(prefix string) bool {
	if !strings.Contains(prefix, "/") {
		return false
	}
	_, _, err := net.ParseCIDR(prefix)
	return err == nil
}
