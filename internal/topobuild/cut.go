package topobuild

// Cut splits every line/ring at junction coordinates and returns the flat
// list of cut pieces in the same lines-then-rings order as the input.
func Cut(extracted []Extracted, junctions Junctions) []Extracted {
	var out []Extracted
	for _, e := range extracted {
		out = append(out, cutOne(e, junctions)...)
	}
	return out
}

func isJunctionCoord(c QCoord, junctions Junctions) bool {
	return junctions[coordKey{c.X, c.Y}]
}

func cutOne(e Extracted, junctions Junctions) []Extracted {
	if !e.IsRing {
		return cutLineAt(e.Coords, junctions)
	}
	return cutRing(e.Coords, junctions)
}

// cutLineAt splits an open coordinate sequence at every interior junction.
func cutLineAt(coords []QCoord, junctions Junctions) []Extracted {
	var pieces []Extracted
	start := 0
	for i := 1; i < len(coords)-1; i++ {
		if isJunctionCoord(coords[i], junctions) {
			pieces = append(pieces, Extracted{Coords: append([]QCoord(nil), coords[start:i+1]...)})
			start = i
		}
	}
	pieces = append(pieces, Extracted{Coords: append([]QCoord(nil), coords[start:]...)})
	return pieces
}

func rotateClosedRing(coords []QCoord, newStart int) []QCoord {
	// coords is closed: coords[0] == coords[len-1]. Interior length excludes
	// the duplicated closing point.
	n := len(coords) - 1
	rotated := make([]QCoord, 0, len(coords))
	for k := 0; k < n; k++ {
		rotated = append(rotated, coords[(newStart+k)%n])
	}
	rotated = append(rotated, rotated[0])
	return rotated
}

func cutRing(coords []QCoord, junctions Junctions) []Extracted {
	if len(coords) < 2 {
		return []Extracted{{Coords: coords, IsRing: true}}
	}

	working := coords
	if !isJunctionCoord(coords[0], junctions) {
		interiorLen := len(coords) - 1
		firstJunction := -1
		for i := 1; i < interiorLen; i++ {
			if isJunctionCoord(coords[i], junctions) {
				firstJunction = i
				break
			}
		}
		if firstJunction >= 0 {
			working = rotateClosedRing(coords, firstJunction)
		} else {
			return []Extracted{{Coords: coords, IsRing: true}}
		}
	}

	pieces := cutLineAt(working, junctions)
	for i := range pieces {
		pieces[i].IsRing = false
	}
	return pieces
}
