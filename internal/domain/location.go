package domain

// Represents a single labeled point of a tour.
// The zero-based Index is the stable identity of a location for the whole run;
// weather and demand overlays are keyed by it, never by slice position.
type Location struct {
	Index int
	Name  string
}

// Build locations from an ordered list of display names.
func LocationsFromNames(names []string) []Location {
	out := make([]Location, 0, len(names))
	for i, n := range names {
		out = append(out, Location{Index: i, Name: n})
	}
	return out
}
