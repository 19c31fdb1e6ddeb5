package hunt

import (
	"math"
	"math/rand/v2"
	"slices"
	"strings"
)

// maxFactorialN is the largest n whose factorial fits in an int64.
const maxFactorialN = 20

// maxProbeAttempts caps the collision probing done for a single team.
const maxProbeAttempts = 10000

const signatureSep = ">"

var factorials = func() [maxFactorialN + 1]int64 {
	var f [maxFactorialN + 1]int64
	f[0] = 1
	for i := 1; i <= maxFactorialN; i++ {
		f[i] = f[i-1] * int64(i)
	}
	return f
}()

// Factorial returns n!, saturating at math.MaxInt64 for n > 20.
func Factorial(n int) int64 {
	switch {
	case n < 0:
		return 0
	case n <= maxFactorialN:
		return factorials[n]
	default:
		return math.MaxInt64
	}
}

// PathCapacity reports how many distinct orderings k intermediate
// locations allow and whether that is enough for every team.
func PathCapacity(k, teams int) (maxUnique int64, canBeUnique bool) {
	maxUnique = Factorial(k)
	return maxUnique, int64(teams) <= maxUnique
}

// GeneratedPath is the ordered stop list assigned to one team.
type GeneratedPath struct {
	TeamID    string
	Locations []Location
	Signature string
}

// Steps converts the path into storable stage rows.
func (p GeneratedPath) Steps() []PathStep {
	steps := make([]PathStep, len(p.Locations))
	for i, loc := range p.Locations {
		steps[i] = PathStep{TeamID: p.TeamID, LocationID: loc.ID, StageOrder: i}
	}
	return steps
}

// GeneratePaths assigns every team a path that starts at start, ends at
// end and visits all intermediates in between. Orderings are kept
// distinct across teams as long as len(teamIDs) <= k!; beyond that each
// team gets an independent shuffle and duplicates are expected.
//
// Callers must run ValidateLocations first: start and end are assumed to
// be distinct and intermediates to contain neither.
func GeneratePaths(rng *rand.Rand, start, end Location, intermediates []Location, teamIDs []string) []GeneratedPath {
	paths := make([]GeneratedPath, 0, len(teamIDs))

	k := len(intermediates)
	if k == 0 {
		for _, id := range teamIDs {
			paths = append(paths, newGeneratedPath(id, start, end, nil))
		}
		return paths
	}

	maxPerms := Factorial(k)
	if int64(len(teamIDs)) > maxPerms {
		for _, id := range teamIDs {
			paths = append(paths, newGeneratedPath(id, start, end, shuffled(rng, intermediates)))
		}
		return paths
	}

	p := &uniquePicker{
		rng:       rng,
		items:     intermediates,
		max:       maxPerms,
		budget:    min(maxPerms, maxProbeAttempts/2) * 2,
		usedIndex: make(map[int64]struct{}, len(teamIDs)),
		usedKey:   make(map[string]struct{}, len(teamIDs)),
	}
	for _, id := range teamIDs {
		paths = append(paths, newGeneratedPath(id, start, end, p.next()))
	}
	return paths
}

// DecodePermutation maps index in [0, len(items)!) to an ordering of
// items using the factorial number system (Lehmer code). Index 0 is the
// input order and len(items)!-1 its reverse. Only meaningful for up to
// 20 items.
func DecodePermutation(index int64, items []Location) []Location {
	pool := slices.Clone(items)
	out := make([]Location, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		pos := int((index / Factorial(i)) % int64(i+1))
		out = append(out, pool[pos])
		pool = slices.Delete(pool, pos, pos+1)
	}
	return out
}

// Signature identifies a path by its location IDs.
func Signature(locs []Location) string {
	ids := make([]string, len(locs))
	for i, l := range locs {
		ids[i] = l.ID
	}
	return strings.Join(ids, signatureSep)
}

// UniqueSignatures counts the distinct paths in paths.
func UniqueSignatures(paths []GeneratedPath) int {
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		seen[p.Signature] = struct{}{}
	}
	return len(seen)
}

func newGeneratedPath(teamID string, start, end Location, order []Location) GeneratedPath {
	locs := make([]Location, 0, len(order)+2)
	locs = append(locs, start)
	locs = append(locs, order...)
	locs = append(locs, end)
	return GeneratedPath{
		TeamID:    teamID,
		Locations: locs,
		Signature: Signature(locs),
	}
}

func shuffled(rng *rand.Rand, items []Location) []Location {
	out := slices.Clone(items)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// uniquePicker hands out intermediate orderings not yet given to another
// team. Uniqueness is best effort: once the probe budget is spent the
// last candidate is returned even if it repeats.
type uniquePicker struct {
	rng       *rand.Rand
	items     []Location
	max       int64
	budget    int64
	usedIndex map[int64]struct{}
	usedKey   map[string]struct{}
}

func (p *uniquePicker) next() []Location {
	var order []Location
	if len(p.items) > maxFactorialN {
		order = p.nextShuffled()
	} else {
		order = p.nextIndexed()
	}
	p.usedKey[Signature(order)] = struct{}{}
	return order
}

func (p *uniquePicker) nextIndexed() []Location {
	idx := p.rng.Int64N(p.max)
	order := DecodePermutation(idx, p.items)
	for attempt := int64(0); p.taken(order) && attempt < p.budget; attempt++ {
		idx = (idx + 1) % p.max
		if _, used := p.usedIndex[idx]; used {
			continue
		}
		order = DecodePermutation(idx, p.items)
	}
	p.usedIndex[idx] = struct{}{}
	return order
}

// nextShuffled covers k > 20, where k! no longer fits an index. A uniform
// shuffle draws from the same distribution as a uniform index.
func (p *uniquePicker) nextShuffled() []Location {
	order := shuffled(p.rng, p.items)
	for attempt := int64(0); p.taken(order) && attempt < p.budget; attempt++ {
		order = shuffled(p.rng, p.items)
	}
	return order
}

func (p *uniquePicker) taken(order []Location) bool {
	_, ok := p.usedKey[Signature(order)]
	return ok
}
