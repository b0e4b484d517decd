package core

// DefaultMaxReferenceDepth bounds how many references are followed in a
// chain before resolution gives up with ErrReferenceCycle.
const DefaultMaxReferenceDepth = 32

// Leniency selects how edge cases in damaged files are handled. The value is
// passed explicitly to every component that needs it so that documents with
// different policies can be open at the same time.
type Leniency struct {
	// StrictNumbers rejects numeric tokens PDF does not allow, such as
	// exponents ("1e5") or doubled signs ("--3").
	StrictNumbers bool `yaml:"strict_numbers"`

	// TolerateGenerationMismatch accepts an object found at its xref offset
	// even when its generation differs from the one requested.
	TolerateGenerationMismatch bool `yaml:"tolerate_generation_mismatch"`

	// MaxReferenceDepth overrides DefaultMaxReferenceDepth when positive.
	MaxReferenceDepth int `yaml:"max_reference_depth"`
}

// DefaultLeniency returns the policy used when none is given: tolerant of
// generation drift and odd numbers, with the default reference depth.
func DefaultLeniency() Leniency {
	return Leniency{
		StrictNumbers:              false,
		TolerateGenerationMismatch: true,
		MaxReferenceDepth:          DefaultMaxReferenceDepth,
	}
}

// ReferenceDepth returns the effective maximum reference depth.
func (l Leniency) ReferenceDepth() int {
	if l.MaxReferenceDepth > 0 {
		return l.MaxReferenceDepth
	}
	return DefaultMaxReferenceDepth
}
