package biometric

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/dmitrijs2005/facelock/internal/server/models"
)

const (
	// DescriptorLength is the size of a face-api style face descriptor.
	DescriptorLength = 128
	// DefaultThreshold is the largest Euclidean distance still considered a match.
	DefaultThreshold = 0.6
)

// DescriptorVerifier matches probes that carry a precomputed face descriptor
// (a JSON array of floats) against the enrolled descriptor.
type DescriptorVerifier struct {
	threshold float64
}

func NewDescriptorVerifier(threshold float64) *DescriptorVerifier {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &DescriptorVerifier{threshold: threshold}
}

func (v *DescriptorVerifier) Verify(ctx context.Context, probe []byte, ref *models.FaceReference) (Match, error) {
	if err := ctx.Err(); err != nil {
		return Match{}, err
	}
	d, err := ParseDescriptor(probe)
	if err != nil {
		return Match{}, err
	}
	dist, err := Distance(d, ref.Descriptor)
	if err != nil {
		return Match{}, err
	}
	return Match{
		Matched:    dist <= v.threshold,
		Confidence: math.Max(0, 1-dist),
		Distance:   dist,
	}, nil
}

// ParseDescriptor decodes and validates a probe descriptor.
func ParseDescriptor(probe []byte) ([]float64, error) {
	var d []float64
	if err := json.Unmarshal(probe, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInvalidProbe, err)
	}
	if err := ValidateDescriptor(d); err != nil {
		return nil, err
	}
	return d, nil
}

func ValidateDescriptor(d []float64) error {
	if len(d) != DescriptorLength {
		return fmt.Errorf("%w: descriptor has %d values, want %d", common.ErrorInvalidProbe, len(d), DescriptorLength)
	}
	for _, x := range d {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: descriptor contains non-finite values", common.ErrorInvalidProbe)
		}
	}
	return nil
}

// Distance is the Euclidean distance between two descriptors.
func Distance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: descriptor length mismatch %d != %d", common.ErrorInvalidProbe, len(a), len(b))
	}
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum), nil
}
