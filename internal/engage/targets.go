package engage

import "log"

// resolvePool applies the three-tier resolution policy for one target
// kind: the engine-scoped allowlist wins when non-empty, else the
// adapter-scoped list, else the kind is disabled (empty pool).
func resolvePool(enabled bool, engineList, adapterList []string) []string {
	if !enabled {
		return nil
	}
	if len(engineList) > 0 {
		return engineList
	}
	if len(adapterList) > 0 {
		return adapterList
	}
	return nil
}

// eligibleTargets merges the independently gated direct and group
// pools.
func (p *Pipeline) eligibleTargets() []Target {
	var adapterDirect, adapterGroup []string
	if p.directory != nil {
		adapterDirect, adapterGroup = p.directory.ResolveAllowlists()
	}

	var out []Target
	for _, addr := range resolvePool(p.cfg.EnableDirect, p.cfg.DirectAllowlist, adapterDirect) {
		out = append(out, Target{Kind: TargetDirect, Address: addr})
	}
	for _, addr := range resolvePool(p.cfg.EnableGroup, p.cfg.GroupAllowlist, adapterGroup) {
		out = append(out, Target{Kind: TargetGroup, Address: addr})
	}
	if len(out) == 0 {
		log.Printf("[ENGAGE] no eligible targets: both pools empty or disabled")
	}
	return out
}
