package events

import "nftstaking/core/types"

const (
	// TypeTransfer is emitted for every balance movement applied by the bank.
	TypeTransfer = "transfer.native"
)

type Transfer struct {
	Asset  string
	From   [20]byte
	To     [20]byte
	Amount uint64
}

func (Transfer) EventType() string { return TypeTransfer }

func (e Transfer) Event() *types.Event {
	attrs := map[string]string{}
	if asset := normalizeAsset(e.Asset); asset != "" {
		attrs["asset"] = asset
	}
	attrs["from"] = accountString(e.From)
	attrs["to"] = accountString(e.To)
	attrs["amount"] = uintToString(e.Amount)
	return &types.Event{Type: TypeTransfer, Attributes: attrs}
}
