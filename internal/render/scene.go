package render

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint hashes everything that affects the pixels of scene, so equal
// fingerprints mean identical frames. Map keys are encoded in sorted order.
func Fingerprint(scene Scene) (uint64, error) {
	b, err := json.Marshal(scene)
	if err != nil {
		return 0, fmt.Errorf("fingerprint scene: %w", err)
	}
	return xxhash.Sum64(b), nil
}
