package microjet

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithConeSize sets the reclustering radius R.
func WithConeSize(r float64) Option {
	return func(b *Builder) {
		if r > 0 {
			b.coneSize = r
		}
	}
}

// WithMinPt sets the transverse-momentum threshold for inclusive microjets.
func WithMinPt(pt float64) Option {
	return func(b *Builder) {
		if pt >= 0 {
			b.minPt = pt
		}
	}
}

// WithMaxMicrojets caps how many of the hardest microjets are kept.
func WithMaxMicrojets(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.maxMicrojets = n
		}
	}
}
