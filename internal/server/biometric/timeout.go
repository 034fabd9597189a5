package biometric

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/dmitrijs2005/facelock/internal/server/models"
)

// VerifyWithin runs v with a deadline and stops waiting when it passes, even
// if v ignores its context. An expired deadline yields ErrVerifierTimeout;
// cancellation of the parent ctx yields ctx.Err().
func VerifyWithin(ctx context.Context, v Verifier, timeout time.Duration, probe []byte, ref *models.FaceReference) (Match, error) {
	vctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		m   Match
		err error
	}
	ch := make(chan result, 1)
	go func() {
		m, err := v.Verify(vctx, probe, ref)
		ch <- result{m, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) && ctx.Err() == nil {
			return Match{}, common.ErrVerifierTimeout
		}
		return r.m, r.err
	case <-vctx.Done():
		if err := ctx.Err(); err != nil {
			return Match{}, err
		}
		return Match{}, common.ErrVerifierTimeout
	}
}
