package genotypeState

import (
	"errors"
	"fmt"
	"strings"

	"varsearch/api/models/constants"
)

const (
	RefRef     constants.GenotypeState = "ref_ref"
	RefAlt     constants.GenotypeState = "ref_alt"
	AltAlt     constants.GenotypeState = "alt_alt"
	HasAlt     constants.GenotypeState = "has_alt"
	HasRef     constants.GenotypeState = "has_ref"
	Missing    constants.GenotypeState = "missing"
	NotMissing constants.GenotypeState = "not_missing"
)

var ErrUnknownToken = errors.New("unknown genotype state")

// NumAltShape tells how a NumAltPredicate constrains a num_alt field.
type NumAltShape int

const (
	Exact NumAltShape = iota
	AtLeast
	OneOf
)

// NumAltPredicate is the fixed numeric condition behind a genotype token.
type NumAltPredicate struct {
	Shape  NumAltShape
	Value  int
	Values []int
}

var predicates = map[constants.GenotypeState]NumAltPredicate{
	RefRef:     {Shape: Exact, Value: 0},
	RefAlt:     {Shape: Exact, Value: 1},
	AltAlt:     {Shape: Exact, Value: 2},
	HasAlt:     {Shape: AtLeast, Value: 1},
	HasRef:     {Shape: OneOf, Values: []int{0, 1}},
	Missing:    {Shape: Exact, Value: -1},
	NotMissing: {Shape: AtLeast, Value: 0},
}

func CastToGenotypeState(text string) (constants.GenotypeState, error) {
	state := constants.GenotypeState(strings.ToLower(strings.TrimSpace(text)))
	if _, ok := predicates[state]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownToken, text)
	}
	return state, nil
}

func PredicateFor(state constants.GenotypeState) (NumAltPredicate, error) {
	p, ok := predicates[state]
	if !ok {
		return NumAltPredicate{}, fmt.Errorf("%w: %q", ErrUnknownToken, string(state))
	}
	return p, nil
}

// Accepts reports whether a num_alt value satisfies the predicate.
func (p NumAltPredicate) Accepts(numAlt int) bool {
	switch p.Shape {
	case Exact:
		return numAlt == p.Value
	case AtLeast:
		return numAlt >= p.Value
	case OneOf:
		for _, v := range p.Values {
			if v == numAlt {
				return true
			}
		}
	}
	return false
}
