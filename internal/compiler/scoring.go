package compiler

// functions builds the multiplicative scoring functions: content-type
// boosts, longevity-dependent recency decay and interestingness tiers.
func (c *Compiler) functions() []Function {
	p := c.settings.Profile
	fns := make([]Function, 0, 2+len(p.Longevity)+1+len(p.Interestingness))

	for _, tb := range []struct {
		typ    string
		weight float64
	}{
		{p.Featured.Type, p.Featured.Weight},
		{p.Secondary.Type, p.Secondary.Weight},
	} {
		if tb.typ == "" || tb.weight <= 0 || p.TypeField == "" {
			continue
		}
		fns = append(fns, Function{
			Filter: &Clause{Term: map[string]any{p.TypeField: tb.typ}},
			Weight: tb.weight,
		})
	}

	fns = append(fns, c.decayFunctions()...)

	if p.InterestingnessField != "" {
		for _, t := range p.Interestingness {
			if t.Weight <= 0 {
				continue
			}
			from := t.From
			fns = append(fns, Function{
				Filter: &Clause{Range: map[string]Range{
					p.InterestingnessField: {GTE: &from, LT: t.To},
				}},
				Weight: t.Weight,
			})
		}
	}
	return fns
}

// decayFunctions emits one decay per longevity band plus one for
// documents without a band, which decay at the default band's scale.
func (c *Compiler) decayFunctions() []Function {
	p := c.settings.Profile
	if len(p.Longevity) == 0 || p.TimestampField == "" {
		return nil
	}
	exp := func(scale string) map[string]Decay {
		return map[string]Decay{p.TimestampField: {Origin: "now", Scale: scale, Decay: p.Decay}}
	}

	def, ok := p.Band(p.DefaultBand)
	if !ok {
		def = p.Longevity[0]
	}
	if p.LongevityField == "" {
		return []Function{{Exp: exp(def.Scale)}}
	}

	fns := make([]Function, 0, len(p.Longevity)+1)
	for _, b := range p.Longevity {
		fns = append(fns, Function{
			Filter: &Clause{Term: map[string]any{p.LongevityField: b.Name}},
			Exp:    exp(b.Scale),
		})
	}
	fns = append(fns, Function{
		Filter: &Clause{Bool: &Bool{MustNot: []Clause{{Exists: &Exists{Field: p.LongevityField}}}}},
		Exp:    exp(def.Scale),
	})
	return fns
}
