package domain

// Marker position within the current run: which edge of the closed tour is
// being traversed and how far along it, normalized to [0,1].
type AnimationState struct {
	EdgeIndex int     `json:"edge_index"`
	Edge      Edge    `json:"edge"`
	Progress  float64 `json:"progress"`
}
