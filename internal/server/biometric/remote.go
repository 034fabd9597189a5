package biometric

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/dmitrijs2005/facelock/internal/server/models"
)

// RemoteVerifier forwards probe images to an external matching service.
//
// Request:  POST {endpoint} {"probeImage": "<base64>", "referenceDescriptor": [...]}
// Response: 200 {"matched": bool, "confidence": float, "distance": float}
type RemoteVerifier struct {
	endpoint string
	client   *http.Client
}

func NewRemoteVerifier(endpoint string, client *http.Client) *RemoteVerifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteVerifier{endpoint: endpoint, client: client}
}

type remoteRequest struct {
	ProbeImage          []byte    `json:"probeImage"`
	ReferenceDescriptor []float64 `json:"referenceDescriptor"`
}

type remoteResponse struct {
	Matched    bool    `json:"matched"`
	Confidence float64 `json:"confidence"`
	Distance   float64 `json:"distance"`
}

func (v *RemoteVerifier) Verify(ctx context.Context, probe []byte, ref *models.FaceReference) (Match, error) {
	body, err := json.Marshal(remoteRequest{ProbeImage: probe, ReferenceDescriptor: ref.Descriptor})
	if err != nil {
		return Match{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(body))
	if err != nil {
		return Match{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Match{}, common.ErrVerifierTimeout
		}
		if errors.Is(err, context.Canceled) {
			return Match{}, err
		}
		return Match{}, fmt.Errorf("%w: %v", common.ErrVerifierUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return Match{}, common.ErrorInvalidProbe
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return Match{}, fmt.Errorf("%w: status %d", common.ErrVerifierUnavailable, resp.StatusCode)
	}

	var out remoteResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&out); err != nil {
		return Match{}, fmt.Errorf("%w: bad response: %v", common.ErrVerifierUnavailable, err)
	}
	return Match(out), nil
}
