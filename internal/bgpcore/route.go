// Package bgpcore implements the BGP-4 path-vector decision and
// propagation engine: route representation, per-peer RIB accounting,
// best-path selection, policy application, and the convergence driver.
// The package performs no I/O — it is driven entirely in memory by
// internal/httpapi or cmd/bgpsim.
package bgpcore

// OriginType is the BGP ORIGIN path attribute. Ordinal order is the
// comparison order: IGP is preferred over EGP, EGP over INCOMPLETE.
type OriginType int

const (
	OriginIGP OriginType = iota
	OriginEGP
	OriginIncomplete
)

// String returns the symbolic name used in externally visible route
// records (spec requires "IGP" / "EGP" / "INCOMPLETE", not the ordinal).
func (o OriginType) String() string {
	switch o {
	case OriginIGP:
		return "IGP"
	case OriginEGP:
		return "EGP"
	case OriginIncomplete:
		return "INCOMPLETE"
	default:
		return "INCOMPLETE"
	}
}

// Route is a single BGP NLRI and its path attributes. It is
// value-typed by convention: callers must use Clone when a Route
// crosses a RIB boundary, since AS-path mutation (prepending) happens
// in place on the crossing copy.
type Route struct {
	Prefix    string
	ASPath    []string // leftmost = most recent hop, rightmost = origin
	Origin    OriginType
	LocalPref int
	MED       int
	NextHop   string // AS identifier of the immediate advertiser, or self if originated
}

// HasLoop reports whether asn appears anywhere in the AS path.
func (r *Route) HasLoop(asn string) bool {
	for _, hop := range r.ASPath {
		if hop == asn {
			return true
		}
	}
	return false
}

// Clone returns a deep copy; the returned Route's ASPath slice is
// independently mutable from the source.
func (r *Route) Clone() *Route {
	path := make([]string, len(r.ASPath))
	copy(path, r.ASPath)
	return &Route{
		Prefix:    r.Prefix,
		ASPath:    path,
		Origin:    r.Origin,
		LocalPref: r.LocalPref,
		MED:       r.MED,
		NextHop:   r.NextHop,
	}
}

// RouteRecord is the externally visible form of a Route, as emitted in
// final_ribs results (spec.md §6: "Route dicts use origin as the
// symbolic name").
type RouteRecord struct {
	Prefix    string   `json:"prefix"`
	ASPath    []string `json:"as_path"`
	Origin    string   `json:"origin"`
	LocalPref int      `json:"local_pref"`
	MED       int      `json:"med"`
	NextHop   string   `json:"next_hop"`
}

// ToRecord emits the externally visible form of the route.
func (r *Route) ToRecord() RouteRecord {
	path := make([]string, len(r.ASPath))
	copy(path, r.ASPath)
	return RouteRecord{
		Prefix:    r.Prefix,
		ASPath:    path,
		Origin:    r.Origin.String(),
		LocalPref: r.LocalPref,
		MED:       r.MED,
		NextHop:   r.NextHop,
	}
}

// equalForDecision implements the selector's deliberately narrow
// equality check (spec.md §4.3 step 5): AS path, local-pref, and
// origin, ignoring next-hop and MED so a mere peer-path permutation
// that leaves the observable best path identical doesn't re-trigger an
// update storm.
func equalForDecision(a, b *Route) bool {
	if a.LocalPref != b.LocalPref || a.Origin != b.Origin {
		return false
	}
	if len(a.ASPath) != len(b.ASPath) {
		return false
	}
	for i := range a.ASPath {
		if a.ASPath[i] != b.ASPath[i] {
			return false
		}
	}
	return true
}
