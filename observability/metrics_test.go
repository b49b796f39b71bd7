package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestAPIMetrics(t *testing.T) {
	m := API()
	require.Same(t, m, API())

	before := testutil.ToFloat64(m.requests.WithLabelValues("GET /v1/configs", "200"))
	m.Observe("GET /v1/configs", 200, time.Millisecond)
	require.Equal(t, before+1, testutil.ToFloat64(m.requests.WithLabelValues("GET /v1/configs", "200")))

	done := m.StreamOpened()
	require.Equal(t, float64(1), testutil.ToFloat64(m.subscribers))
	done()
	require.Equal(t, float64(0), testutil.ToFloat64(m.subscribers))

	m.RecordThrottle("")
	require.Equal(t, float64(1), testutil.ToFloat64(m.throttles.WithLabelValues("unspecified")))
}

func TestEventMetricsGroupsNFTTransfers(t *testing.T) {
	m := Events()
	m.RecordTransfer("nft1lf6fde9wsspsdh6ph4jcsqpe9cjdhzkyl3lk8w")
	m.RecordTransfer("")
	require.GreaterOrEqual(t, testutil.ToFloat64(m.transfers.WithLabelValues("NFT")), float64(1))
	require.GreaterOrEqual(t, testutil.ToFloat64(m.transfers.WithLabelValues("UNKNOWN")), float64(1))
}
