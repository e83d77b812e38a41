package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonwraymond/l1fee/cache"
	"github.com/jonwraymond/l1fee/fee"
	"github.com/jonwraymond/l1fee/observe"
)

const maxBodyBytes = 1 << 20

// EstimateResponse is the body of a successful estimate. L1Gas is null
// when the chain does not charge the fee.
type EstimateResponse struct {
	L1Gas fee.Fee `json:"l1Gas"`
}

func (s *Server) parseArgs(w http.ResponseWriter, r *http.Request) (fee.Args, error) {
	var args fee.Args
	if err := ParseJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &args); err != nil {
		return fee.Args{}, BadRequest(fmt.Errorf("body: %w", err))
	}
	if args.ChainID == 0 {
		return fee.Args{}, BadRequest(ErrMissingChain)
	}
	return args, nil
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) error {
	args, err := s.parseArgs(w, r)
	if err != nil {
		return err
	}
	f, err := s.est.Fetch(r.Context(), args)
	if err != nil {
		return s.fetchError(r.Context(), args, err)
	}
	return WriteJSON(w, EstimateResponse{L1Gas: f})
}

func (s *Server) handleEvict(w http.ResponseWriter, r *http.Request) error {
	args, err := s.parseArgs(w, r)
	if err != nil {
		return err
	}
	if err := s.est.Evict(args); err != nil {
		return BadRequest(err)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// fetchError maps an estimator error to an HTTP status.
func (s *Server) fetchError(ctx context.Context, args fee.Args, err error) error {
	switch {
	case errors.Is(err, cache.ErrInvalidKey), errors.Is(err, cache.ErrUnserializable):
		return BadRequest(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return HTTPError(err, http.StatusServiceUnavailable)
	case fee.IsTransportError(err):
		s.logger.Warn(ctx, "fee estimate failed",
			observe.F("chain", args.ChainID.String()),
			observe.F("error", err))
		return HTTPError(err, http.StatusBadGateway)
	default:
		s.logger.Error(ctx, "fee estimate failed",
			observe.F("chain", args.ChainID.String()),
			observe.F("error", err))
		return err
	}
}
