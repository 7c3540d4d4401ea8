package cache

// Profile measures one access stream against several cache configurations
// at once.
type Profile struct {
	models []Model
}

// NewProfile creates a profile with one model per configuration. Without
// configurations it measures DefaultConfig only.
func NewProfile(configs ...Config) *Profile {
	if len(configs) == 0 {
		configs = []Config{DefaultConfig()}
	}

	p := &Profile{models: make([]Model, 0, len(configs))}
	for _, c := range configs {
		p.models = append(p.models, NewModel(c))
	}

	return p
}

// Insert records an access to line in every configuration.
func (p *Profile) Insert(line LineID) {
	hashed := Hash(line)
	for _, m := range p.models {
		m.AccessHashed(line, hashed)
	}
}

// ClearAddresses empties every simulated cache, keeping the counters.
func (p *Profile) ClearAddresses() {
	for _, m := range p.models {
		m.ClearAddresses()
	}
}

// Clear empties every simulated cache and resets the counters.
func (p *Profile) Clear() {
	for _, m := range p.models {
		m.Clear()
	}
}

// Configs returns the configurations in measurement order.
func (p *Profile) Configs() []Config {
	configs := make([]Config, len(p.models))
	for i, m := range p.models {
		configs[i] = m.Config()
	}
	return configs
}

// Stats returns the counters of every configuration.
func (p *Profile) Stats() []Statistics {
	stats := make([]Statistics, len(p.models))
	for i, m := range p.models {
		stats[i] = m.Stats()
	}
	return stats
}

// HitRatios returns the hit ratio of every configuration. Entries are NaN
// when TotalAccesses is zero.
func (p *Profile) HitRatios() []float64 {
	ratios := make([]float64, len(p.models))
	for i, m := range p.models {
		ratios[i] = m.Stats().HitRatio()
	}
	return ratios
}

// TotalAccesses returns the number of accesses recorded. Every configuration
// sees the same stream, so the first one is representative.
func (p *Profile) TotalAccesses() uint64 {
	return p.models[0].Stats().Total()
}
