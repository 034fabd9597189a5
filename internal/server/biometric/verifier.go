// Package biometric adapts face-matching capabilities to the unlock flow.
// The matching model itself lives elsewhere; this package only decides how
// a probe is compared with an enrolled reference.
package biometric

import (
	"context"

	"github.com/dmitrijs2005/facelock/internal/server/models"
)

// Match is a verifier's decision for one probe.
type Match struct {
	Matched    bool
	Confidence float64
	Distance   float64
}

type Verifier interface {
	Verify(ctx context.Context, probe []byte, ref *models.FaceReference) (Match, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, probe []byte, ref *models.FaceReference) (Match, error)

func (f VerifierFunc) Verify(ctx context.Context, probe []byte, ref *models.FaceReference) (Match, error) {
	return f(ctx, probe, ref)
}
