package topobuild

// DeltaEncode replaces each arc's positions 1..n with the delta to a
// cursor that starts at zero. The returned
// coordinates are the values written verbatim into the output document;
// decoding reverses this with an identical zero-started cursor.
func DeltaEncode(arcs []Arc) [][]QCoord {
	out := make([][]QCoord, len(arcs))
	for i, arc := range arcs {
		encoded := make([]QCoord, len(arc.Coords))
		var cursorX, cursorY int64
		for j, c := range arc.Coords {
			dx := c.X - cursorX
			dy := c.Y - cursorY
			encoded[j] = QCoord{X: dx, Y: dy, Z: c.Z}
			cursorX, cursorY = c.X, c.Y
		}
		out[i] = encoded
	}
	return out
}

// DeltaDecode reverses DeltaEncode.
func DeltaDecode(encoded [][]QCoord) []Arc {
	out := make([]Arc, len(encoded))
	for i, enc := range encoded {
		coords := make([]QCoord, len(enc))
		var cursorX, cursorY int64
		for j, d := range enc {
			cursorX += d.X
			cursorY += d.Y
			coords[j] = QCoord{X: cursorX, Y: cursorY, Z: d.Z}
		}
		out[i] = Arc{Coords: coords}
	}
	return out
}
