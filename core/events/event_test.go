package events

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type recorder struct{ got []Event }

func (r *recorder) Emit(evt Event) { r.got = append(r.got, evt) }

func TestBufferFlushesInOrder(t *testing.T) {
	var buf Buffer
	buf.Emit(StakingLocked{LockedAt: 1})
	buf.Emit(nil)
	buf.Emit(StakingClaimed{Reward: 7})
	require.Len(t, buf.Events(), 2)

	sink := &recorder{}
	buf.Flush(sink)
	require.Len(t, sink.got, 2)
	require.Equal(t, TypeStakingLocked, sink.got[0].EventType())
	require.Equal(t, TypeStakingClaimed, sink.got[1].EventType())
	require.Empty(t, buf.Events())

	buf.Emit(StakingClosed{})
	buf.Flush(nil)
	require.Empty(t, buf.Events(), "flushing to nil drops the events")
}

func TestFanoutUnsubscribe(t *testing.T) {
	f := NewFanout()
	a, b := &recorder{}, &recorder{}
	f.Subscribe(a)
	cancel := f.Subscribe(b)

	f.Emit(StakingOpened{})
	cancel()
	f.Emit(StakingClosed{})

	require.Len(t, a.got, 2)
	require.Len(t, b.got, 1)

	var nilFanout *Fanout
	require.NotPanics(t, func() {
		nilFanout.Emit(StakingClosed{})
		nilFanout.Subscribe(a)()
	})
}

func TestPayloadAttributes(t *testing.T) {
	var config, owner [20]byte
	config[0], owner[0] = 1, 2

	claimed := StakingClaimed{Config: config, Owner: owner, Reward: 1000}.Event()
	require.Equal(t, TypeStakingClaimed, claimed.Type)
	require.Equal(t, "1000", claimed.Attributes["reward"])
	require.Equal(t, accountString(config), claimed.Attributes["config"])
	require.Contains(t, claimed.Attributes["config"], "stk1")

	transfer := Transfer{Asset: " rwd ", Amount: 5}.Event()
	require.Equal(t, "RWD", transfer.Attributes["asset"])
	require.Equal(t, "5", transfer.Attributes["amount"])

	bare := Transfer{Amount: 1}.Event()
	_, ok := bare.Attributes["asset"]
	require.False(t, ok)

	clone := claimed.Clone()
	clone.Attributes["reward"] = "0"
	require.Equal(t, "1000", claimed.Attributes["reward"])
}
