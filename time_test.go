package auth_test

import (
	"testing"
	"time"

	auth "github.com/kloydmatyo/workqit-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsWithinThresholdPeriod(t *testing.T) {
	recent := time.Now().Add(-1 * time.Hour)
	within, err := auth.IsWithinThresholdPeriod(recent, "24h")
	require.NoError(t, err)
	assert.True(t, within)

	stale := time.Now().Add(-48 * time.Hour)
	within, err = auth.IsWithinThresholdPeriod(stale, "24h")
	require.NoError(t, err)
	assert.False(t, within)
}

func TestIsOutsideThresholdPeriod(t *testing.T) {
	stale := time.Now().Add(-48 * time.Hour)
	outside, err := auth.IsOutsideThresholdPeriod(stale, "24h")
	require.NoError(t, err)
	assert.True(t, outside)
}

func TestThresholdPeriodInvalidPattern(t *testing.T) {
	_, err := auth.IsWithinThresholdPeriod(time.Now(), "one day")
	assert.Error(t, err)

	_, err = auth.IsOutsideThresholdPeriod(time.Now(), "one day")
	assert.Error(t, err)
}
