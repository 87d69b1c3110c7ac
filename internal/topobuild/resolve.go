package topobuild

// AlignRing rotates a closed ring exactly the way Cut does: when the start
// is not a junction but an interior junction exists, the first interior
// junction becomes the new start. Resolving a ring against the cut arcs
// only works from the same start Cut used.
func AlignRing(coords []QCoord, junctions Junctions) []QCoord {
	if len(coords) < 2 || isJunctionCoord(coords[0], junctions) {
		return coords
	}
	interiorLen := len(coords) - 1
	for i := 1; i < interiorLen; i++ {
		if isJunctionCoord(coords[i], junctions) {
			return rotateClosedRing(coords, i)
		}
	}
	return coords
}

// ResolveRingArcRefs resolves a closed ring. An uncut ring may have been
// deduplicated against a rotated or reversed ring-arc, which the prefix
// scan cannot see; check those first, then fall through to ResolveArcRefs
// on the Cut-aligned rotation.
func ResolveRingArcRefs(coords []QCoord, arcs *[]Arc, junctions Junctions) []int {
	aligned := AlignRing(coords, junctions)
	for idx, arc := range *arcs {
		if !arc.IsRing || len(arc.Coords) != len(aligned) {
			continue
		}
		if ringsEqualRotated(arc.Coords, aligned) {
			return []int{idx}
		}
		if ringsEqualRotatedReversed(arc.Coords, aligned) {
			return []int{-idx - 1}
		}
	}
	return ResolveArcRefs(aligned, arcs)
}

// ResolveArcRefs computes the arc-ref sequence for one line or ring's full
// (uncut) coordinate sequence against the final deduplicated arc list,
// greedily matching contiguous runs forward or reversed. If no arc matches
// the remainder, the remainder is appended as a new arc (a fallback that
// should not trigger when refs is built from the same coordinates the arcs
// were cut from).
func ResolveArcRefs(coords []QCoord, arcs *[]Arc) []int {
	var refs []int
	cursor := 0

	for cursor < len(coords)-1 {
		matched := false
		for idx, arc := range *arcs {
			n := len(arc.Coords)
			if n < 2 {
				continue
			}
			remaining := len(coords) - cursor
			if n > remaining {
				continue
			}
			if arcsEqualForward(arc.Coords, coords[cursor:cursor+n]) {
				refs = append(refs, idx)
				cursor += n - 1
				matched = true
				break
			}
			if arcsEqualReversed(arc.Coords, coords[cursor:cursor+n]) {
				refs = append(refs, -idx-1)
				cursor += n - 1
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		remainder := append([]QCoord(nil), coords[cursor:]...)
		*arcs = append(*arcs, Arc{Coords: remainder})
		refs = append(refs, len(*arcs)-1)
		cursor = len(coords) - 1
	}

	return refs
}
