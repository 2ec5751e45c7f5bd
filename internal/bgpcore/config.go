package bgpcore

// Config is the validated configuration record the core accepts.
// internal/validate is responsible for producing one of these from
// untrusted input before the core ever sees it; the core performs no
// further validation beyond the ScenarioUnknown precondition check.
type Config struct {
	Nodes     []string
	Links     [][2]string
	Prefixes  []string
	OriginAS  string
	Scenario  string
	Hijacker  string
	FlapCount int
	Policies  map[string]PolicyConfig
	MaxSteps  int // 0 means "use the default of 100"
}

// PolicyConfig is the per-AS policy portion of a Config.
type PolicyConfig struct {
	LocalPref     map[string]int
	ExportFilters []ExportFilter
	ASPathPrepend int
}

const (
	ScenarioBaseline   = "baseline"
	ScenarioHijack     = "hijack"
	ScenarioRouteFlap  = "route_flap"
	defaultMaxSteps    = 100
	defaultFlapCount   = 3
)

func (pc PolicyConfig) toPolicy() Policy {
	p := NewPolicy()
	if pc.LocalPref != nil {
		p.LocalPrefMap = make(map[string]int, len(pc.LocalPref))
		for k, v := range pc.LocalPref {
			p.LocalPrefMap[k] = v
		}
	}
	p.ExportFilters = append([]ExportFilter(nil), pc.ExportFilters...)
	p.ASPathPrepend = pc.ASPathPrepend
	return p
}
