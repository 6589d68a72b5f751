package strategy

import (
	"github.com/colabbrave/minuteforge/internal/logger"
	"github.com/colabbrave/minuteforge/internal/types"
)

// exploreRounds is the number of early rounds spent cycling fresh
// dimension combinations before the selector switches to perturbing the
// best historical combination.
const exploreRounds = 3

// minCombinationSize is the floor every returned combination is padded
// up to from the baseline pool.
const minCombinationSize = 2

// Protected dimensions are never sacrificed by the dimension-balance
// replacement: minutes without a role or a structure degrade badly.
var protectedDimensions = map[types.Dimension]bool{
	types.DimensionRole:      true,
	types.DimensionStructure: true,
}

// Selector produces the strategy combination for each round. It is a
// pure function of its inputs: the same iteration, history, and
// suggestion always yield the same combination.
type Selector struct {
	catalog  *Catalog
	maxCount int
}

// NewSelector creates a selector over the given catalog. maxCount bounds
// combination size.
func NewSelector(catalog *Catalog, maxCount int) *Selector {
	return &Selector{catalog: catalog, maxCount: maxCount}
}

// Select returns the combination for the given round. Round 0 is always
// the baseline. Later rounds apply a valid improvement suggestion when
// one is supplied, and otherwise take the deterministic fallback path.
func (s *Selector) Select(iteration int, history types.History, suggestion *types.ImprovementSuggestion) types.Combination {
	if iteration == 0 {
		return s.catalog.Baseline()
	}

	var combo types.Combination
	if suggestion != nil && !suggestion.Empty() {
		combo = s.applySuggestion(*suggestion, history)
	} else {
		combo = s.fallback(iteration, history)
	}

	combo = s.normalize(combo)
	logger.Info("selected strategies for round %d: %v", iteration, combo)
	return combo
}

// applySuggestion edits the best historical combination according to a
// validated suggestion. Removals apply first; each addition is then
// placed by the first applicable rule: direct append under the size
// bound, same-dimension swap, dimension-balance swap, or dropped.
func (s *Selector) applySuggestion(suggestion types.ImprovementSuggestion, history types.History) types.Combination {
	combo := s.baseCombination(history)

	for _, id := range suggestion.RemoveStrategies {
		if i := indexOf(combo, id); i >= 0 {
			combo = append(combo[:i], combo[i+1:]...)
			logger.Info("removed strategy per suggestion: %s", id)
		}
	}

	for _, id := range suggestion.AddStrategies {
		if combo.Contains(id) {
			continue
		}
		if s.catalog.ConflictsWithAny(id, combo) {
			logger.Info("dropped suggested strategy %s: conflicts with current combination", id)
			continue
		}
		if len(combo) < s.maxCount {
			combo = append(combo, id)
			logger.Info("added strategy per suggestion: %s", id)
			continue
		}
		if replaced := s.replaceFor(id, combo, history); replaced != "" {
			logger.Info("replaced strategy %s with %s", replaced, id)
		} else {
			logger.Info("dropped suggested strategy %s: combination full and no replacement slot", id)
		}
	}

	return combo
}

// replaceFor finds a member to swap out for the new strategy and performs
// the swap in place. Returns the replaced id, or "" when no rule applies.
//
// Rules, in order: (1) first member of the same dimension; (2) first
// member, in combination order, of a most over-represented dimension
// that is neither protected (Role/Structure) nor the new strategy's own,
// when some dimension holds more than one member; (3) with at least two
// rounds of history, the first member outside the protected dimensions.
func (s *Selector) replaceFor(id string, combo types.Combination, history types.History) string {
	newDim := s.catalog.Dimension(id)
	if newDim == "" {
		return ""
	}

	for i, member := range combo {
		if s.catalog.Dimension(member) == newDim {
			replaced := member
			combo[i] = id
			return replaced
		}
	}

	counts := make(map[types.Dimension]int)
	for _, member := range combo {
		counts[s.catalog.Dimension(member)]++
	}
	maxCount := 0
	for _, n := range counts {
		if n > maxCount {
			maxCount = n
		}
	}
	if maxCount > 1 {
		// Scan the combination itself, not the counts map, so ties
		// between over-represented dimensions resolve the same way on
		// every call. Protected dimensions are never the victim here.
		for i, member := range combo {
			dim := s.catalog.Dimension(member)
			if counts[dim] != maxCount || dim == newDim || protectedDimensions[dim] {
				continue
			}
			replaced := member
			combo[i] = id
			logger.Debug("dimension-balance replacement: %s -> %s", dim, newDim)
			return replaced
		}
	}

	if len(history) >= 2 {
		for i, member := range combo {
			if !protectedDimensions[s.catalog.Dimension(member)] {
				replaced := member
				combo[i] = id
				return replaced
			}
		}
	}

	return ""
}

// fallback is the deterministic path taken when no valid suggestion
// exists. Early rounds explore one candidate per dimension; later rounds
// perturb exactly one slot of the best historical combination.
func (s *Selector) fallback(iteration int, history types.History) types.Combination {
	if len(history) == 0 {
		return s.catalog.Baseline()
	}

	if iteration < exploreRounds {
		return s.explore(iteration)
	}

	combo := history.Best().Strategies.Clone()
	if len(combo) == 0 {
		return s.catalog.Baseline()
	}

	idx := iteration % len(combo)
	pool := s.catalog.ByDimension(s.catalog.Dimension(combo[idx]))
	if len(pool) == 0 {
		return combo
	}

	alternative := pool[iteration%len(pool)]
	if alternative == combo[idx] {
		return combo
	}

	rest := append(combo[:idx:idx], combo[idx+1:]...)
	if s.catalog.ConflictsWithAny(alternative, rest) {
		logger.Debug("perturbation candidate %s conflicts, keeping %s", alternative, combo[idx])
		return combo
	}
	logger.Debug("perturbation: slot %d %s -> %s", idx, combo[idx], alternative)
	combo[idx] = alternative
	return combo
}

// explore picks one conflict-checked candidate per dimension in the fixed
// dimension order, cycling candidates within each pool by round index.
func (s *Selector) explore(iteration int) types.Combination {
	var selected types.Combination
	for _, dim := range types.Dimensions {
		if len(selected) >= s.maxCount {
			break
		}
		pool := s.catalog.ByDimension(dim)
		if len(pool) == 0 {
			continue
		}
		candidate := pool[iteration%len(pool)]
		if s.catalog.ConflictsWithAny(candidate, selected) {
			logger.Debug("explore skipped %s: conflicts with %v", candidate, selected)
			continue
		}
		selected = append(selected, candidate)
	}
	return selected
}

// normalize enforces the size invariants: trim to maxCount, then pad from
// the baseline up to the minimum size, skipping conflicting members.
func (s *Selector) normalize(combo types.Combination) types.Combination {
	if len(combo) > s.maxCount {
		combo = combo[:s.maxCount]
	}
	if len(combo) < minCombinationSize {
		for _, id := range s.catalog.Baseline() {
			if len(combo) >= s.maxCount {
				break
			}
			if combo.Contains(id) || s.catalog.ConflictsWithAny(id, combo) {
				continue
			}
			combo = append(combo, id)
			if len(combo) >= minCombinationSize {
				break
			}
		}
	}
	return combo
}

// baseCombination is the starting point for suggestion application: the
// best combination seen so far, or the baseline before any history.
func (s *Selector) baseCombination(history types.History) types.Combination {
	if best := history.Best(); best != nil && len(best.Strategies) > 0 {
		return best.Strategies.Clone()
	}
	return s.catalog.Baseline()
}

func indexOf(combo types.Combination, id string) int {
	for i, member := range combo {
		if member == id {
			return i
		}
	}
	return -1
}
