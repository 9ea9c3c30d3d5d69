package domain

import (
	"context"
	"fmt"

	"github.com/davidbz/costdesk/internal/observability"
)

const minClientCount = 1

// AllocationEngine splits flat monthly fees evenly across an expected client
// count. Shares are recomputed from their inputs on every call.
//
// The expected count is fixed for the month: clients joining or leaving
// mid-month do not change the split.
type AllocationEngine struct{}

// NewAllocationEngine creates a new allocation engine.
func NewAllocationEngine() *AllocationEngine {
	return &AllocationEngine{}
}

// Allocate divides each monthly cost by expectedClientCount, clamped to a
// minimum of one. Malformed requests are rejected before anything is computed.
func (a *AllocationEngine) Allocate(
	ctx context.Context,
	requests []FlatFeeRequest,
	expectedClientCount int,
) (AllocationResult, error) {
	for i, req := range requests {
		if req.ToolID == "" {
			return AllocationResult{}, fmt.Errorf("flat fee request %d: %w", i, ErrEmptyToolID)
		}
		if req.MonthlyCost < 0 {
			return AllocationResult{}, fmt.Errorf("flat fee request %d (%s): %w", i, req.ToolID, ErrNegativeAmount)
		}
	}

	clientCount := expectedClientCount
	clamped := false
	if clientCount < minClientCount {
		observability.FromContext(ctx).Warn("expected client count clamped",
			observability.Int("requested", expectedClientCount),
			observability.Int("used", minClientCount))
		clientCount = minClientCount
		clamped = true
	}

	result := AllocationResult{
		Shares:                make([]FlatFeeShare, 0, len(requests)),
		FlatFeeTotalPerClient: 0,
		ClientCount:           clientCount,
		Clamped:               clamped,
	}

	for _, req := range requests {
		share := req.MonthlyCost / float64(clientCount)
		result.Shares = append(result.Shares, FlatFeeShare{
			ToolID:         req.ToolID,
			MonthlyCost:    req.MonthlyCost,
			PerClientShare: share,
		})
		result.FlatFeeTotalPerClient += share
	}

	return result, nil
}
