package ppp

// pipelineTier is a per-session instantiation of a registryTier: the
// same tier number, with one LayerData per registered factory.
type pipelineTier struct {
	tier    Tier
	entries []*LayerData
}

// Pipeline is the per-session clone of the LayerRegistry: one LayerData
// per registered factory, grouped and ordered exactly as the registry's
// tiers were at construction time. It drives startup and teardown of
// the tiers in order, applying the cross-tier completion rule.
type Pipeline struct {
	session *Session
	tiers   []*pipelineTier
}

// newPipeline walks reg in tier order and calls factory.Init(s) for
// every registered factory, producing a Pipeline ready for
// startFirst. It returns ErrNoLayers if the registry contributed no
// tiers at all.
func newPipeline(reg *LayerRegistry, s *Session) (*Pipeline, error) {
	snap := reg.snapshot()
	if len(snap) == 0 {
		return nil, ErrNoLayers
	}

	p := &Pipeline{session: s, tiers: make([]*pipelineTier, 0, len(snap))}

	for _, regTier := range snap {
		pt := &pipelineTier{tier: regTier.tier}

		for _, factory := range regTier.factories {
			payload, optional := factory.Init(s)
			ld := &LayerData{
				factory:  factory,
				Payload:  payload,
				optional: optional,
				tier:     pt,
				session:  s,
			}
			pt.entries = append(pt.entries, ld)
		}

		p.tiers = append(p.tiers, pt)
	}

	return p, nil
}

// startFirst marks every LayerData in tier 0 as starting and calls its
// factory's Start, in registration order. The first Start error
// immediately requests soft termination with TermNASError and stops
// starting the remaining factories in the tier.
func (p *Pipeline) startFirst() error {
	return p.startTier(p.tiers[0])
}

func (p *Pipeline) startTier(pt *pipelineTier) error {
	for _, ld := range pt.entries {
		ld.starting = true
		if err := ld.factory.Start(ld); err != nil {
			p.session.Terminate(TermNASError, false)
			return err
		}
	}

	return nil
}

// onLayerStarted implements the started/passive completion policy
// shared by LayerStarted and LayerPassive. passive selects which flag
// is idempotently set.
func (p *Pipeline) onLayerStarted(ld *LayerData, passive bool) {
	if passive {
		if ld.started || ld.passive {
			return
		}
		ld.passive = true
	} else {
		if ld.started {
			return
		}
		ld.started = true
	}

	pt := ld.tier
	if !p.tierComplete(pt) {
		return
	}

	if p.session.metrics != nil {
		p.session.metrics.TierAdvanced(pt.tier)
	}

	next := p.nextTier(pt)
	if next == nil {
		p.session.activate()
		return
	}

	p.startTier(next)
}

// tierComplete reports whether every entry in pt has either started or
// gone passive, AND at least one non-optional entry has started.
func (p *Pipeline) tierComplete(pt *pipelineTier) bool {
	anyNonOptionalStarted := false

	for _, ld := range pt.entries {
		if !ld.started && !ld.passive {
			return false
		}
		if ld.started && !ld.optional {
			anyNonOptionalStarted = true
		}
	}

	return anyNonOptionalStarted
}

// nextTier returns the pipeline tier immediately following pt, or nil
// if pt is the last tier.
func (p *Pipeline) nextTier(pt *pipelineTier) *pipelineTier {
	for i, t := range p.tiers {
		if t == pt {
			if i+1 < len(p.tiers) {
				return p.tiers[i+1]
			}
			return nil
		}
	}
	return nil
}

// onLayerFinished marks ld finished, clears starting, and scans the
// whole pipeline: if any entry is still starting-and-not-finished this
// is a no-op; otherwise the session proceeds to destablish.
func (p *Pipeline) onLayerFinished(ld *LayerData) {
	if ld.finished {
		return
	}
	ld.finished = true
	ld.starting = false

	for _, pt := range p.tiers {
		for _, e := range pt.entries {
			if e.starting && !e.finished {
				return
			}
		}
	}

	p.session.destablish()
}

// terminate implements the teardown half of Pipeline: hard tears down
// immediately; soft finishes every currently-starting layer and waits
// for the resulting onLayerFinished cascade, or destablishes directly
// if nothing was starting.
func (p *Pipeline) terminate(hard bool) {
	if hard {
		p.session.destablish()
		return
	}

	anyFinishing := false
	for _, pt := range p.tiers {
		for _, ld := range pt.entries {
			if ld.starting && !ld.finished {
				anyFinishing = true
				ld.factory.Finish(ld)
			}
		}
	}

	if !anyFinishing {
		p.session.destablish()
	}
}

// freeLayers calls factory.Free for every entry across every tier, then
// discards the tier nodes. Called once during destablish.
func (p *Pipeline) freeLayers() {
	for _, pt := range p.tiers {
		for _, ld := range pt.entries {
			ld.factory.Free(ld)
		}
	}
	p.tiers = nil
}

// findLayerData returns the LayerData instantiated for factory, if
// any.
func (p *Pipeline) findLayerData(factory LayerFactory) (*LayerData, bool) {
	for _, pt := range p.tiers {
		for _, ld := range pt.entries {
			if ld.factory == factory {
				return ld, true
			}
		}
	}
	return nil, false
}
