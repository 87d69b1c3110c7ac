package topojson

import (
	"encoding/json"
	"io"
)

// Write serializes a Topology as TopoJSON.
func Write(w io.Writer, t *Topology) error {
	enc := json.NewEncoder(w)
	return enc.Encode(t)
}

// Marshal serializes a Topology to bytes.
func Marshal(t *Topology) ([]byte, error) {
	return json.Marshal(t)
}
