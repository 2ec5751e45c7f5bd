package bgpcore

import "testing"

func TestASNode_OriginateRoute_InstallsInRIB(t *testing.T) {
	node := NewASNode("100")
	route := node.OriginateRoute("10.0.1.0/24")

	if len(route.ASPath) != 1 || route.ASPath[0] != "100" {
		t.Errorf("expected as_path [100], got %v", route.ASPath)
	}
	if route.NextHop != "100" {
		t.Errorf("expected next_hop 100, got %s", route.NextHop)
	}
	got, ok := node.RIB["10.0.1.0/24"]
	if !ok || got.ASPath[0] != "100" {
		t.Error("expected originated route installed in RIB")
	}
}

func TestASNode_ReceiveRoute_RejectsLoop(t *testing.T) {
	node := NewASNode("100")
	route := &Route{Prefix: "10.0.1.0/24", ASPath: []string{"200", "100"}, NextHop: "200"}

	changed := node.ReceiveRoute(route, "200")
	if changed {
		t.Error("expected receive to report no change for looping route")
	}
	if _, ok := node.RIB["10.0.1.0/24"]; ok {
		t.Error("expected RIB untouched after loop rejection")
	}
}

func TestASNode_ReceiveRoute_RejectsMissingNextHop(t *testing.T) {
	node := NewASNode("100")
	route := &Route{Prefix: "10.0.1.0/24", ASPath: []string{"200"}}

	if node.ReceiveRoute(route, "200") {
		t.Error("expected receive to reject a route with no next_hop")
	}
}

func TestASNode_ReceiveRoute_SetsNextHopToImmediatePeer(t *testing.T) {
	node := NewASNode("300")
	route := &Route{Prefix: "10.0.1.0/24", ASPath: []string{"200", "100"}, NextHop: "200"}

	if !node.ReceiveRoute(route, "200") {
		t.Fatal("expected receive to accept the route")
	}
	stored := node.RIBIn["200"]["10.0.1.0/24"]
	if stored.NextHop != "200" {
		t.Errorf("expected stored next_hop 200, got %s", stored.NextHop)
	}
}

func TestASNode_WithdrawRoute_NoopForUnknownPrefix(t *testing.T) {
	node := NewASNode("100")
	node.AddNeighbor("200")
	if node.WithdrawRoute("10.0.9.0/24", "200") {
		t.Error("expected withdraw of unknown prefix to be a no-op")
	}
}

func TestASNode_WithdrawRoute_RemovesAndReruns(t *testing.T) {
	node := NewASNode("300")
	route := &Route{Prefix: "10.0.1.0/24", ASPath: []string{"200", "100"}, NextHop: "200"}
	node.ReceiveRoute(route, "200")

	if !node.WithdrawRoute("10.0.1.0/24", "200") {
		t.Error("expected withdraw to report a change")
	}
	if _, ok := node.RIB["10.0.1.0/24"]; ok {
		t.Error("expected RIB entry removed after withdraw of only candidate")
	}
}

func TestASNode_PrepareAdvertisement_SplitHorizon(t *testing.T) {
	node := NewASNode("200")
	route := &Route{Prefix: "10.0.1.0/24", ASPath: []string{"200", "100"}, NextHop: "100"}

	_, ok := node.PrepareAdvertisement(route, "100")
	if ok {
		t.Error("expected split-horizon suppression when re-advertising to the learned-from peer")
	}
}

func TestASNode_PrepareAdvertisement_PrependsOwnASNOnce(t *testing.T) {
	node := NewASNode("200")
	route := &Route{Prefix: "10.0.1.0/24", ASPath: []string{"100"}, NextHop: "100"}

	adv, ok := node.PrepareAdvertisement(route, "300")
	if !ok {
		t.Fatal("expected advertisement to be prepared")
	}
	want := []string{"200", "100"}
	if len(adv.ASPath) != 2 || adv.ASPath[0] != want[0] || adv.ASPath[1] != want[1] {
		t.Errorf("expected as_path %v, got %v", want, adv.ASPath)
	}
	if adv.NextHop != "200" {
		t.Errorf("expected next_hop 200, got %s", adv.NextHop)
	}
}

func TestASNode_DecisionProcess_PrefersHigherLocalPref(t *testing.T) {
	node := NewASNode("300")
	node.AddNeighbor("100")
	node.AddNeighbor("200")

	// AS100: direct, shorter path, and the higher local-pref via the policy below.
	node.Policy.LocalPrefMap = map[string]int{"100": 150, "200": 100}

	node.ReceiveRoute(&Route{Prefix: "10.0.1.0/24", ASPath: []string{"100"}, NextHop: "100"}, "100")
	node.ReceiveRoute(&Route{Prefix: "10.0.1.0/24", ASPath: []string{"200", "999"}, NextHop: "200"}, "200")

	best := node.RIB["10.0.1.0/24"]
	if len(best.ASPath) < 2 || best.ASPath[1] != "100" {
		t.Errorf("expected local-pref to pick the AS100 path, got %v", best.ASPath)
	}
}

func TestASNode_DecisionProcess_MEDOnlyComparedWithinSameFirstHop(t *testing.T) {
	node := NewASNode("999")
	node.AddNeighbor("100")
	node.AddNeighbor("200")

	// Different first-hop ASes: MED must not be compared across them.
	// AS100's path (len 1) should win on path length regardless of MED.
	node.ReceiveRoute(&Route{Prefix: "10.0.1.0/24", ASPath: []string{"100"}, NextHop: "100", MED: 500}, "100")
	node.ReceiveRoute(&Route{Prefix: "10.0.1.0/24", ASPath: []string{"200", "300"}, NextHop: "200", MED: 0}, "200")

	best := node.RIB["10.0.1.0/24"]
	if len(best.ASPath) < 2 || best.ASPath[1] != "100" {
		t.Errorf("expected shortest-path AS100 route to win despite higher MED, got %v", best.ASPath)
	}
}

func TestASNode_DecisionProcess_TieBreaksOnPeerIdentifier(t *testing.T) {
	node := NewASNode("999")
	node.AddNeighbor("100")
	node.AddNeighbor("200")

	// Equal local-pref, equal path length (2), equal origin: lowest peer wins.
	node.ReceiveRoute(&Route{Prefix: "10.0.1.0/24", ASPath: []string{"200", "X"}, NextHop: "200"}, "200")
	node.ReceiveRoute(&Route{Prefix: "10.0.1.0/24", ASPath: []string{"100", "Y"}, NextHop: "100"}, "100")

	best := node.RIB["10.0.1.0/24"]
	if len(best.ASPath) < 2 || best.ASPath[1] != "100" {
		t.Errorf("expected lowest peer identifier (100) to win tie-break, got %v", best.ASPath)
	}
}

func TestASNode_DecisionProcess_UnchangedBestPathIsNotAChange(t *testing.T) {
	node := NewASNode("300")
	node.AddNeighbor("100")
	node.AddNeighbor("200")

	node.ReceiveRoute(&Route{Prefix: "10.0.1.0/24", ASPath: []string{"100"}, NextHop: "100", MED: 10}, "100")
	// A second receive from a different peer with a worse path should not change the winner...
	changed := node.ReceiveRoute(&Route{Prefix: "10.0.1.0/24", ASPath: []string{"200", "999"}, NextHop: "200"}, "200")
	if changed {
		t.Error("expected no change when a worse candidate arrives")
	}
}
