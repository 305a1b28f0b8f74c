// Package quality classifies a reach set's data sufficiency into the tier
// that gates which estimation path runs.
package quality

// Tier is the coarse data-sufficiency classification for one reach set.
// Within a run a tier only ever worsens; every transition goes through
// Demote.
type Tier int

const (
	// Nominal runs the full estimation.
	Nominal Tier = iota
	// Degraded runs the prior-only estimation.
	Degraded
	// Invalid runs no estimation; the output record is fill-valued.
	Invalid
)

func (t Tier) String() string {
	switch t {
	case Nominal:
		return "nominal"
	case Degraded:
		return "degraded"
	case Invalid:
		return "invalid"
	}
	return "unknown"
}

// Usable reports whether the tier still produces estimates of any kind.
func (t Tier) Usable() bool {
	return t == Nominal || t == Degraded
}

const (
	// MinReaches is the reach count below which the set starts Degraded.
	MinReaches = 3

	// MinTimesteps is the post-filter time-step floor for full estimation.
	MinTimesteps = 4

	// MinTimestepsPrior is the time-step floor below which even the
	// prior-only path cannot run. Numerically equal to MinTimesteps today,
	// but kept as its own constant: upstream notes suggest the two were
	// meant to differ, and no corrected relationship has been decided.
	MinTimestepsPrior = 4
)

// Demote lowers t to target if target is worse; it never improves a tier.
func (t Tier) Demote(target Tier) Tier {
	if target > t {
		return target
	}
	return t
}

// Initial is the tier before any observation is read, from the reach count
// alone.
func Initial(nR int) Tier {
	if nR < MinReaches {
		return Degraded
	}
	return Nominal
}

// CheckPrefilter applies the pre-filter checkpoint: with fewer than
// MinTimestepsPrior aligned time steps no channel read is worth attempting.
func CheckPrefilter(t Tier, nt int) Tier {
	if nt < MinTimestepsPrior {
		return t.Demote(Invalid)
	}
	return t
}

// CheckPostfilter applies the post-filter checkpoint over the time steps
// that survived the validity filter.
func CheckPostfilter(t Tier, ntFiltered int) Tier {
	if ntFiltered < MinTimestepsPrior {
		return t.Demote(Invalid)
	}
	if ntFiltered < MinTimesteps {
		return t.Demote(Degraded)
	}
	return t
}
