package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(NoteSavesTotal.WithLabelValues("created"))
	TrackSave("created")
	assert.Equal(t, before+1, testutil.ToFloat64(NoteSavesTotal.WithLabelValues("created")))

	before = testutil.ToFloat64(FormattingDegradedTotal)
	TrackDegraded()
	assert.Equal(t, before+1, testutil.ToFloat64(FormattingDegradedTotal))

	before = testutil.ToFloat64(StoreErrorsTotal.WithLabelValues("get note"))
	TrackStoreError("get note")
	assert.Equal(t, before+1, testutil.ToFloat64(StoreErrorsTotal.WithLabelValues("get note")))
}
