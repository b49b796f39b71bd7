package rpc

import (
	"encoding/binary"

	"nftstaking/native/nftstaking"
)

// Operation names signed by clients. The signed digest is
// auth.OperationDigest(name, nonce, fields...) with the fields below.
const (
	OpOpen        = "nftstaking.open"
	OpLock        = "nftstaking.lock"
	OpClaim       = "nftstaking.claim"
	OpUnlock      = "nftstaking.unlock"
	OpReconfigure = "nftstaking.reconfigure"
	OpClose       = "nftstaking.close"
)

func u64Field(v uint64) []byte {
	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, v)
	return out
}

func i64Field(v int64) []byte { return u64Field(uint64(v)) }

func OpenFields(p nftstaking.OpenParams) [][]byte {
	return [][]byte{
		p.Collection[:],
		[]byte(nftstaking.NormalizeAsset(p.RewardAsset)),
		u64Field(p.RatePerSecond),
		i64Field(p.HorizonStart),
		i64Field(p.HorizonEnd),
		i64Field(p.MinimumEligiblePeriod),
		u64Field(p.MaxCapacity),
	}
}

// PositionFields covers lock, claim and unlock.
func PositionFields(config, nft [20]byte) [][]byte {
	return [][]byte{config[:], nft[:]}
}

// ReconfigureFields encodes an absent option as an empty field.
func ReconfigureFields(config [20]byte, p nftstaking.ReconfigureParams) [][]byte {
	rate, end := []byte{}, []byte{}
	if p.RatePerSecond != nil {
		rate = u64Field(*p.RatePerSecond)
	}
	if p.HorizonEnd != nil {
		end = i64Field(*p.HorizonEnd)
	}
	return [][]byte{config[:], rate, end}
}

func CloseFields(config [20]byte) [][]byte {
	return [][]byte{config[:]}
}
