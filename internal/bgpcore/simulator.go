package bgpcore

import (
	"fmt"
	"sort"
)

// Event is one timeline entry. FromAS, ToAS, Prefix, and Details are
// optional depending on EventType.
type Event struct {
	Timestamp int    `json:"timestamp"`
	EventType string `json:"event_type"` // open, update, withdraw, keepalive
	FromAS    string `json:"from_as,omitempty"`
	ToAS      string `json:"to_as,omitempty"`
	Prefix    string `json:"prefix,omitempty"`
	Details   string `json:"details,omitempty"`
}

// Metrics are the aggregate measures computed after convergence.
type Metrics struct {
	ConvergenceSteps        int     `json:"convergence_steps"`
	TotalUpdates            int     `json:"total_updates"`
	TotalEvents             int     `json:"total_events"`
	BestRouteChangesTotal   int     `json:"best_route_changes_total"`
	AvgASPathLength         float64 `json:"avg_as_path_length"`
	RoutesLearnedTotal      int     `json:"routes_learned_total"`
	ReachablePrefixPairsPct float64 `json:"reachable_prefix_pairs_pct"`
	HijackCoveragePct       *float64 `json:"hijack_coverage_pct,omitempty"`
}

// TopologyNode and TopologyEdge describe the built graph in the
// results record.
type TopologyNode struct {
	ID string `json:"id"`
}

type TopologyEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type Topology struct {
	Nodes []TopologyNode `json:"nodes"`
	Edges []TopologyEdge `json:"edges"`
}

// Results is the record returned by RunSimulation.
type Results struct {
	Timeline   []Event                          `json:"timeline"`
	Metrics    Metrics                          `json:"metrics"`
	FinalRIBs  map[string]map[string]RouteRecord `json:"final_ribs"`
	Topology   Topology                         `json:"topology"`
}

// Simulator builds a topology from a Config, drives the chosen
// scenario to convergence, and records a timeline of protocol-level
// events plus aggregate metrics. It performs no I/O.
type Simulator struct {
	config                 Config
	nodes                  map[string]*ASNode
	timeline               []Event
	currentStep            int
	bestRouteChangesTotal  int
}

// NewSimulator constructs a Simulator from a validated Config.
func NewSimulator(cfg Config) *Simulator {
	return &Simulator{
		config: cfg,
		nodes:  map[string]*ASNode{},
	}
}

// RunSimulation is the core's single entry point (spec.md §6).
func RunSimulation(cfg Config) (Results, error) {
	sim := NewSimulator(cfg)
	return sim.Run()
}

func (s *Simulator) sortedNodeIDs() []string {
	ids := make([]string, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Simulator) buildTopology() {
	for _, asn := range s.config.Nodes {
		node := NewASNode(asn)
		if pc, ok := s.config.Policies[asn]; ok {
			node.Policy = pc.toPolicy()
		}
		s.nodes[asn] = node
	}

	for _, link := range s.config.Links {
		a, b := link[0], link[1]
		s.nodes[a].AddNeighbor(b)
		s.nodes[b].AddNeighbor(a)
	}
}

func (s *Simulator) logEvent(e Event) {
	e.Timestamp = s.currentStep
	s.timeline = append(s.timeline, e)
}

func (s *Simulator) establishSessions() {
	for _, asn := range s.sortedNodeIDs() {
		node := s.nodes[asn]
		for _, neighbor := range node.SortedNeighbors() {
			s.logEvent(Event{EventType: "open", FromAS: asn, ToAS: neighbor, Details: "BGP session established"})
		}
	}
}

// Run builds the topology, executes the configured scenario to
// convergence, and returns the results record.
func (s *Simulator) Run() (Results, error) {
	s.buildTopology()
	s.establishSessions()

	switch s.config.Scenario {
	case ScenarioBaseline:
		s.runBaseline()
	case ScenarioHijack:
		s.runHijack()
	case ScenarioRouteFlap:
		s.runRouteFlap()
	default:
		return Results{}, fmt.Errorf("bgpcore: unknown scenario %q", s.config.Scenario)
	}

	return s.generateResults(), nil
}

func (s *Simulator) maxSteps() int {
	if s.config.MaxSteps > 0 {
		return s.config.MaxSteps
	}
	return defaultMaxSteps
}

func (s *Simulator) originate(asn string, details string) {
	for _, prefix := range s.config.Prefixes {
		s.nodes[asn].OriginateRoute(prefix)
		s.logEvent(Event{EventType: "update", FromAS: asn, Prefix: prefix, Details: details})
	}
}

func (s *Simulator) runBaseline() {
	s.originate(s.config.OriginAS, "Origin announcement")
	s.propagateUntilConvergence()
}

func (s *Simulator) runHijack() {
	s.originate(s.config.OriginAS, "Legitimate origin announcement")
	s.currentStep++
	s.propagateUntilConvergence()

	s.originate(s.config.Hijacker, "HIJACK: Malicious announcement")
	s.currentStep++
	s.propagateUntilConvergence()
}

func (s *Simulator) runRouteFlap() {
	flapCount := s.config.FlapCount
	if flapCount <= 0 {
		flapCount = defaultFlapCount
	}

	for i := 0; i < flapCount; i++ {
		s.originate(s.config.OriginAS, fmt.Sprintf("Route announcement (flap %d)", i+1))
		s.currentStep++
		s.propagateUntilConvergence()

		// Deliberately deletes the origin's RIB entry directly without
		// issuing a withdraw through rib_in (spec.md §9 open question):
		// neighbors still hold the route in their own rib_in and will
		// reinstate it from their perspective until the origin
		// re-originates. This models flap as churn on the origin only.
		origin := s.nodes[s.config.OriginAS]
		for _, prefix := range s.config.Prefixes {
			delete(origin.RIB, prefix)
			s.logEvent(Event{EventType: "withdraw", FromAS: s.config.OriginAS, Prefix: prefix, Details: fmt.Sprintf("Route withdrawal (flap %d)", i+1)})
		}

		s.currentStep++
		s.propagateUntilConvergence()
	}
}

type stagedUpdate struct {
	from, to, prefix string
	route            *Route
}

// propagateUntilConvergence runs the staged-then-applied convergence
// driver (spec.md §4.4): every round stages every node's advertisements
// from a consistent snapshot of each sender's RIB, then applies them,
// so convergence is deterministic under a fixed iteration order.
func (s *Simulator) propagateUntilConvergence() {
	converged := false
	iteration := 0

	for !converged && iteration < s.maxSteps() {
		converged = true
		s.currentStep++
		iteration++

		var staged []stagedUpdate
		for _, asn := range s.sortedNodeIDs() {
			node := s.nodes[asn]

			prefixes := make([]string, 0, len(node.RIB))
			for prefix := range node.RIB {
				prefixes = append(prefixes, prefix)
			}
			sort.Strings(prefixes)

			for _, neighbor := range node.SortedNeighbors() {
				for _, prefix := range prefixes {
					route := node.RIB[prefix]
					if adv, ok := node.PrepareAdvertisement(route, neighbor); ok {
						staged = append(staged, stagedUpdate{from: asn, to: neighbor, prefix: prefix, route: adv})
					}
				}
			}
		}

		for _, u := range staged {
			recipient := s.nodes[u.to]
			if recipient.ReceiveRoute(u.route, u.from) {
				s.bestRouteChangesTotal++
				converged = false
				s.logEvent(Event{EventType: "update", FromAS: u.from, ToAS: u.to, Prefix: u.prefix, Details: "Route update"})
			}
		}

		if len(staged) == 0 {
			for _, asn := range s.sortedNodeIDs() {
				node := s.nodes[asn]
				for _, neighbor := range node.SortedNeighbors() {
					s.logEvent(Event{EventType: "keepalive", FromAS: asn, ToAS: neighbor})
				}
			}
		}
	}
}

func (s *Simulator) generateResults() Results {
	finalRIBs := make(map[string]map[string]RouteRecord, len(s.nodes))
	for _, asn := range s.sortedNodeIDs() {
		node := s.nodes[asn]
		rib := make(map[string]RouteRecord, len(node.RIB))
		prefixes := make([]string, 0, len(node.RIB))
		for prefix := range node.RIB {
			prefixes = append(prefixes, prefix)
		}
		sort.Strings(prefixes)
		for _, prefix := range prefixes {
			rib[prefix] = node.RIB[prefix].ToRecord()
		}
		finalRIBs[asn] = rib
	}

	metrics := s.calculateMetrics(finalRIBs)

	topology := Topology{
		Nodes: make([]TopologyNode, 0, len(s.config.Nodes)),
		Edges: make([]TopologyEdge, 0, len(s.config.Links)),
	}
	for _, asn := range s.config.Nodes {
		topology.Nodes = append(topology.Nodes, TopologyNode{ID: asn})
	}
	for _, link := range s.config.Links {
		topology.Edges = append(topology.Edges, TopologyEdge{From: link[0], To: link[1]})
	}

	return Results{
		Timeline:  s.timeline,
		Metrics:   metrics,
		FinalRIBs: finalRIBs,
		Topology:  topology,
	}
}

func (s *Simulator) calculateMetrics(finalRIBs map[string]map[string]RouteRecord) Metrics {
	var totalUpdates int
	for _, e := range s.timeline {
		if e.EventType == "update" {
			totalUpdates++
		}
	}

	m := Metrics{
		ConvergenceSteps:      s.currentStep,
		TotalUpdates:          totalUpdates,
		TotalEvents:           len(s.timeline),
		BestRouteChangesTotal: s.bestRouteChangesTotal,
	}

	var totalLen, routeCount int
	for _, rib := range finalRIBs {
		for _, route := range rib {
			totalLen += len(route.ASPath)
			routeCount++
		}
	}
	if routeCount > 0 {
		m.AvgASPathLength = float64(totalLen) / float64(routeCount)
	}
	m.RoutesLearnedTotal = routeCount

	if len(s.config.Prefixes) > 0 {
		totalPairs := len(s.nodes) * len(s.config.Prefixes)
		var reachable int
		for _, rib := range finalRIBs {
			for _, p := range s.config.Prefixes {
				if _, ok := rib[p]; ok {
					reachable++
				}
			}
		}
		if totalPairs > 0 {
			m.ReachablePrefixPairsPct = float64(reachable) / float64(totalPairs) * 100.0
		}
	}

	if s.config.Scenario == ScenarioHijack && s.config.Hijacker != "" {
		pct := s.calculateHijackCoverage(finalRIBs)
		m.HijackCoveragePct = &pct
	}

	return m
}

func (s *Simulator) calculateHijackCoverage(finalRIBs map[string]map[string]RouteRecord) float64 {
	var hijacked, total int
	for asn, rib := range finalRIBs {
		if asn == s.config.Hijacker {
			continue
		}
		for _, route := range rib {
			total++
			for _, hop := range route.ASPath {
				if hop == s.config.Hijacker {
					hijacked++
					break
				}
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hijacked) / float64(total) * 100.0
}
