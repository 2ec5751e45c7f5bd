package bgpcore

import "sort"

// ASNode is one autonomous system's BGP state: its neighbor set, its
// per-peer inbound RIB, its selected best-path RIB, and its policy.
type ASNode struct {
	ASN       string
	Neighbors map[string]struct{}
	RIBIn     map[string]map[string]*Route // peer -> prefix -> route
	RIB       map[string]*Route            // prefix -> best route
	Policy    Policy
}

// NewASNode constructs a node with the default policy.
func NewASNode(asn string) *ASNode {
	return &ASNode{
		ASN:       asn,
		Neighbors: map[string]struct{}{},
		RIBIn:     map[string]map[string]*Route{},
		RIB:       map[string]*Route{},
		Policy:    NewPolicy(),
	}
}

// SortedNeighbors returns the node's neighbors in lexicographic order,
// for deterministic enumeration (spec.md §5).
func (n *ASNode) SortedNeighbors() []string {
	out := make([]string, 0, len(n.Neighbors))
	for peer := range n.Neighbors {
		out = append(out, peer)
	}
	sort.Strings(out)
	return out
}

// AddNeighbor inserts peer into Neighbors and ensures RIBIn[peer]
// exists. Idempotent.
func (n *ASNode) AddNeighbor(peer string) {
	n.Neighbors[peer] = struct{}{}
	if _, ok := n.RIBIn[peer]; !ok {
		n.RIBIn[peer] = map[string]*Route{}
	}
}

// OriginateRoute constructs and installs a self-originated route for
// prefix. Origination flows through the same decision process as
// learned routes by storing the route under RIBIn[self.ASN] — self
// acts as a virtual peer (spec.md §9: "self as a virtual peer").
func (n *ASNode) OriginateRoute(prefix string) *Route {
	route := &Route{
		Prefix:    prefix,
		ASPath:    []string{n.ASN},
		Origin:    OriginIGP,
		LocalPref: 100,
		MED:       0,
		NextHop:   n.ASN,
	}

	if _, ok := n.RIBIn[n.ASN]; !ok {
		n.RIBIn[n.ASN] = map[string]*Route{}
	}
	n.RIBIn[n.ASN][prefix] = route

	n.RIB[prefix] = route.Clone()
	n.runDecisionProcess(prefix)
	return route
}

// ReceiveRoute processes a route advertised by fromASN. Returns true
// if the best path for route.Prefix changed as a result.
func (n *ASNode) ReceiveRoute(route *Route, fromASN string) bool {
	if route.HasLoop(n.ASN) {
		return false
	}
	if route.NextHop == "" {
		return false
	}

	imported := n.Policy.ApplyImport(route, fromASN)
	imported = imported.Clone()
	imported.NextHop = fromASN

	if _, ok := n.RIBIn[fromASN]; !ok {
		n.RIBIn[fromASN] = map[string]*Route{}
	}
	n.RIBIn[fromASN][route.Prefix] = imported

	return n.runDecisionProcess(route.Prefix)
}

// WithdrawRoute removes the route learned from fromASN for prefix, if
// any, and re-runs the decision process. Returns true if the best path
// changed.
func (n *ASNode) WithdrawRoute(prefix, fromASN string) bool {
	peerRoutes, ok := n.RIBIn[fromASN]
	if !ok {
		return false
	}
	if _, ok := peerRoutes[prefix]; !ok {
		return false
	}
	delete(peerRoutes, prefix)
	return n.runDecisionProcess(prefix)
}

// PrepareAdvertisement applies split horizon and the export policy to
// route for advertisement to toASN. Returns (nil, false) if the
// advertisement is suppressed.
func (n *ASNode) PrepareAdvertisement(route *Route, toASN string) (*Route, bool) {
	if route.NextHop == toASN {
		return nil, false // split horizon
	}

	exported, ok := n.Policy.ApplyExport(route)
	if !ok {
		return nil, false
	}

	exported = exported.Clone()
	if len(exported.ASPath) == 0 || exported.ASPath[0] != n.ASN {
		exported.ASPath = append([]string{n.ASN}, exported.ASPath...)
	}
	exported.NextHop = n.ASN
	return exported, true
}

// runDecisionProcess runs the BGP decision process for prefix and
// updates RIB if the winner differs from the current entry. Returns
// true if RIB was changed.
func (n *ASNode) runDecisionProcess(prefix string) bool {
	type candidate struct {
		route *Route
		peer  string
	}

	var candidates []candidate
	peers := make([]string, 0, len(n.RIBIn))
	for peer := range n.RIBIn {
		peers = append(peers, peer)
	}
	sort.Strings(peers)

	for _, peer := range peers {
		if route, ok := n.RIBIn[peer][prefix]; ok {
			candidates = append(candidates, candidate{route: route, peer: peer})
		}
	}

	if len(candidates) == 0 {
		if _, ok := n.RIB[prefix]; ok {
			delete(n.RIB, prefix)
			return true
		}
		return false
	}

	var winner *Route
	if len(candidates) == 1 {
		winner = candidates[0].route
	} else {
		// Group by first-hop AS (route.as_path[0], or the announcing
		// peer if the path is empty) and collapse each group to its
		// lowest-MED candidate, breaking MED ties by peer identifier.
		// MED is only comparable among routes from the same neighbor AS.
		groups := map[string][]candidate{}
		var groupOrder []string
		for _, c := range candidates {
			firstHop := c.peer
			if len(c.route.ASPath) > 0 {
				firstHop = c.route.ASPath[0]
			}
			if _, ok := groups[firstHop]; !ok {
				groupOrder = append(groupOrder, firstHop)
			}
			groups[firstHop] = append(groups[firstHop], c)
		}
		sort.Strings(groupOrder)

		reduced := make([]candidate, 0, len(groupOrder))
		for _, firstHop := range groupOrder {
			group := groups[firstHop]
			sort.Slice(group, func(i, j int) bool {
				if group[i].route.MED != group[j].route.MED {
					return group[i].route.MED < group[j].route.MED
				}
				return group[i].peer < group[j].peer
			})
			reduced = append(reduced, group[0])
		}

		sort.Slice(reduced, func(i, j int) bool {
			a, b := reduced[i], reduced[j]
			if a.route.LocalPref != b.route.LocalPref {
				return a.route.LocalPref > b.route.LocalPref // higher local-pref wins
			}
			if len(a.route.ASPath) != len(b.route.ASPath) {
				return len(a.route.ASPath) < len(b.route.ASPath) // shorter path wins
			}
			if a.route.Origin != b.route.Origin {
				return a.route.Origin < b.route.Origin // lower origin code wins
			}
			return a.peer < b.peer // lowest peer identifier as final tie-break
		})
		winner = reduced[0].route
	}

	// A node's own rib holds the path as it would be advertised
	// downstream from this node, so the winner is stamped with this
	// node's own ASN at the front the same way originate_route stamps
	// a freshly originated route. A winner already headed by this ASN
	// (only a self-originated candidate can be, since a peer's route
	// containing this ASN is dropped as a loop) is left alone.
	installed := winner.Clone()
	if len(installed.ASPath) == 0 || installed.ASPath[0] != n.ASN {
		installed.ASPath = append([]string{n.ASN}, installed.ASPath...)
	}

	if current, ok := n.RIB[prefix]; ok && equalForDecision(current, installed) {
		return false
	}
	n.RIB[prefix] = installed
	return true
}
