package port

import (
	"context"

	"florify/internal/domain"
)

// Detector is the downstream object-detection stage that consumes a matched
// filled blueprint and returns plant bounding boxes. It is an external
// collaborator; this repository only defines the contract.
type Detector interface {
	Detect(ctx context.Context, image []byte) ([]domain.BoundingBox, error)
}
