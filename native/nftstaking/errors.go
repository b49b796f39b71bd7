package nftstaking

import "errors"

// Arithmetic failures. Always fatal to the operation.
var (
	ErrArithmeticOverflow  = errors.New("nftstaking engine: arithmetic overflow")
	ErrArithmeticUnderflow = errors.New("nftstaking engine: arithmetic underflow")
	ErrInvalidTimeDiff     = errors.New("nftstaking engine: invalid time difference")
)

// Policy rejections, raised before any state mutation or transfer.
var (
	ErrInvalidHorizon      = errors.New("nftstaking engine: invalid staking horizon")
	ErrInvalidMinPeriod    = errors.New("nftstaking engine: invalid minimum period")
	ErrInvalidCapacity     = errors.New("nftstaking engine: invalid max capacity")
	ErrInvalidRate         = errors.New("nftstaking engine: invalid reward rate")
	ErrInvalidRewardAsset  = errors.New("nftstaking engine: invalid reward asset")
	ErrStakingNotActive    = errors.New("nftstaking engine: staking not active")
	ErrHorizonExpired      = errors.New("nftstaking engine: staking horizon expired")
	ErrHorizonNotStarted   = errors.New("nftstaking engine: staking horizon not started")
	ErrCapacityExceeded    = errors.New("nftstaking engine: max capacity exceeded")
	ErrIneligiblePeriod    = errors.New("nftstaking engine: minimum stake period not reached")
	ErrAuditOrderExhausted = errors.New("nftstaking engine: reconfigure order id exhausted")
)

// Funding failures, raised after the payout is known but before transferring.
var (
	ErrInsufficientFunds = errors.New("nftstaking engine: insufficient reward in vault")
)

// Identity and existence failures.
var (
	ErrNilState           = errors.New("nftstaking engine: state not configured")
	ErrNilBank            = errors.New("nftstaking engine: token transfer not configured")
	ErrConfigExists       = errors.New("nftstaking engine: staking config already exists")
	ErrConfigNotFound     = errors.New("nftstaking engine: staking config not found")
	ErrCollectionNotFound = errors.New("nftstaking engine: collection not registered")
	ErrCollectionMismatch = errors.New("nftstaking engine: nft not a member of the staking collection")
	ErrInvalidNFT         = errors.New("nftstaking engine: nft must be a single indivisible unit")
	ErrPositionExists     = errors.New("nftstaking engine: nft already staked")
	ErrPositionNotFound   = errors.New("nftstaking engine: staked position not found")
	ErrNotPositionOwner   = errors.New("nftstaking engine: caller does not own position")
	ErrUnauthorized       = errors.New("nftstaking engine: caller is not the staking admin")
	ErrInvariantViolated  = errors.New("nftstaking engine: ledger invariant violated")
)

// IsPolicyError reports whether err is a policy rejection.
func IsPolicyError(err error) bool {
	for _, target := range []error{
		ErrInvalidHorizon, ErrInvalidMinPeriod, ErrInvalidCapacity, ErrInvalidRate,
		ErrInvalidRewardAsset, ErrStakingNotActive, ErrHorizonExpired, ErrHorizonNotStarted,
		ErrCapacityExceeded, ErrIneligiblePeriod, ErrAuditOrderExhausted,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsArithmeticError reports whether err came from checked arithmetic.
func IsArithmeticError(err error) bool {
	return errors.Is(err, ErrArithmeticOverflow) ||
		errors.Is(err, ErrArithmeticUnderflow) ||
		errors.Is(err, ErrInvalidTimeDiff)
}
