package bgpcore

// FilterAction is the two-variant tag for an export filter entry.
type FilterAction int

const (
	FilterDeny FilterAction = iota
	FilterPermit
)

// ExportFilter is one entry of an ordered export filter list. Any deny
// entry whose Prefix equals the exported route's prefix filters the
// route, wherever it sits in the list; a permit entry does not override
// a later deny for the same prefix. With no matching deny entry the
// route is permitted.
type ExportFilter struct {
	Action FilterAction
	Prefix string
}

// Policy is a per-AS import/export transformation. The zero value is
// the default policy: import is identity, export is identity except
// for the standard one-hop prepend ASNode itself performs.
type Policy struct {
	LocalPrefMap   map[string]int // from_asn -> local_pref, applied on import
	ExportFilters  []ExportFilter
	ASPathPrepend  int // 0..10, extra copies of the exporter's own ASN prepended on export
}

// NewPolicy returns a default policy (empty maps, zero prepend).
func NewPolicy() Policy {
	return Policy{LocalPrefMap: map[string]int{}}
}

// ApplyImport returns a clone of route with LocalPref overwritten from
// LocalPrefMap[fromASN] if present; otherwise the route's own
// local-pref is left untouched. Never fails.
func (p *Policy) ApplyImport(route *Route, fromASN string) *Route {
	modified := route.Clone()
	if pref, ok := p.LocalPrefMap[fromASN]; ok {
		modified.LocalPref = pref
	}
	return modified
}

// ApplyExport returns a clone of route with export filtering and
// AS-path prepending applied, or (nil, false) if the route is denied.
func (p *Policy) ApplyExport(route *Route) (*Route, bool) {
	for _, f := range p.ExportFilters {
		if f.Action == FilterDeny && route.Prefix == f.Prefix {
			return nil, false
		}
	}

	modified := route.Clone()
	if p.ASPathPrepend > 0 && len(modified.ASPath) > 0 {
		self := modified.ASPath[0]
		prepend := make([]string, p.ASPathPrepend)
		for i := range prepend {
			prepend[i] = self
		}
		modified.ASPath = append(prepend, modified.ASPath...)
	}
	return modified, true
}
