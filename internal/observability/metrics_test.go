package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordChatGate(t *testing.T) {
	beforeAllowed := testutil.ToFloat64(ChatGateChecks.WithLabelValues("cache", "allowed"))
	beforeDenied := testutil.ToFloat64(ChatGateChecks.WithLabelValues("db", "denied"))

	RecordChatGate("cache", true)
	RecordChatGate("db", false)
	RecordChatGate("db", false)

	assert.InDelta(t, beforeAllowed+1, testutil.ToFloat64(ChatGateChecks.WithLabelValues("cache", "allowed")), 0.001)
	assert.InDelta(t, beforeDenied+2, testutil.ToFloat64(ChatGateChecks.WithLabelValues("db", "denied")), 0.001)
}

func TestTrackQuery(t *testing.T) {
	before := testutil.CollectAndCount(DatabaseQueryLatency)
	done := TrackQuery("select", "users_track_test")
	done()
	assert.Equal(t, before+1, testutil.CollectAndCount(DatabaseQueryLatency))
}
