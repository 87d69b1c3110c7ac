package topobuild

// nbr is a neighbour position, or the undefined sentinel at an open line's
// endpoint.
type nbr struct {
	defined bool
	x, y    int64
}

func nbrAt(e Extracted, pos int) nbr {
	if pos < 0 || pos >= len(e.Coords) {
		return nbr{}
	}
	c := e.Coords[pos]
	return nbr{defined: true, x: c.X, y: c.Y}
}

func nbrEqual(a, b nbr) bool {
	if !a.defined && !b.defined {
		return true
	}
	if a.defined != b.defined {
		return false
	}
	return a.x == b.x && a.y == b.y
}

type pair struct{ prev, next nbr }

func pairMatches(stored pair, prev, next nbr) bool {
	if nbrEqual(stored.prev, prev) && nbrEqual(stored.next, next) {
		return true
	}
	if nbrEqual(stored.prev, next) && nbrEqual(stored.next, prev) {
		return true
	}
	return false
}

type coordInfo struct {
	isJunction  bool
	firstArc    int
	occurrences []pair
}

type coordKey struct{ x, y int64 }

// Junctions is the set of coordinates where two or more arcs must meet.
type Junctions map[coordKey]bool

// Join determines the junction set: a coordinate is a junction when its
// unordered {prev, next} neighbour pairs disagree across occurrences.
// extracted must already be ordered lines-first-then-rings (the order
// Extract returns).
func Join(extracted []Extracted) Junctions {
	info := make(map[coordKey]*coordInfo)

	for arcIndex, e := range extracted {
		limit := len(e.Coords)
		if e.IsRing {
			// The closing position duplicates position 0; only walk the
			// distinct interior positions and let position 0 absorb both
			// wrap-around neighbours.
			limit = len(e.Coords) - 1
		}

		for pos := 0; pos < limit; pos++ {
			c := e.Coords[pos]
			key := coordKey{c.X, c.Y}

			var prev, next nbr
			if e.IsRing {
				prevPos := pos - 1
				if prevPos < 0 {
					prevPos = limit - 1
				}
				nextPos := pos + 1
				if nextPos >= limit {
					nextPos = 0
				}
				prev, next = nbrAt(e, prevPos), nbrAt(e, nextPos)
			} else {
				prev, next = nbrAt(e, pos-1), nbrAt(e, pos+1)
			}

			ci, ok := info[key]
			if !ok {
				info[key] = &coordInfo{firstArc: arcIndex, occurrences: []pair{{prev, next}}}
				continue
			}
			if ci.isJunction {
				continue
			}
			if arcIndex == ci.firstArc {
				matched := false
				for _, p := range ci.occurrences {
					if pairMatches(p, prev, next) {
						matched = true
						break
					}
				}
				if !matched {
					ci.occurrences = append(ci.occurrences, pair{prev, next})
				}
				continue
			}
			matched := false
			for _, p := range ci.occurrences {
				if pairMatches(p, prev, next) {
					matched = true
					break
				}
			}
			if !matched {
				ci.isJunction = true
			}
		}
	}

	junctions := make(Junctions)
	for k, ci := range info {
		if ci.isJunction {
			junctions[k] = true
		}
	}
	return junctions
}
