package unlocks

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gemscan/internal/domain"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestPressureEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Pressure(nil, testNow))
	assert.Equal(t, 0.0, Pressure([]domain.UnlockEvent{}, testNow))
}

func TestPressureIgnoresPastEvents(t *testing.T) {
	events := []domain.UnlockEvent{
		{Date: testNow.Add(-24 * time.Hour), Share: 0.5},
		{Date: testNow.Add(-90 * 24 * time.Hour), Share: 1.0},
	}
	assert.Equal(t, 0.0, Pressure(events, testNow))
}

func TestPressureImmediateUnlockCarriesFullShare(t *testing.T) {
	events := []domain.UnlockEvent{{Date: testNow, Share: 0.3}}
	assert.InDelta(t, 0.3, Pressure(events, testNow), 1e-9)
}

func TestPressureDecaysWithHorizon(t *testing.T) {
	in30 := []domain.UnlockEvent{{Date: testNow.Add(30 * 24 * time.Hour), Share: 1.0}}
	assert.InDelta(t, math.Exp(-1), Pressure(in30, testNow), 1e-9)

	in60 := []domain.UnlockEvent{{Date: testNow.Add(60 * 24 * time.Hour), Share: 1.0}}
	assert.InDelta(t, math.Exp(-2), Pressure(in60, testNow), 1e-9)

	near := Pressure([]domain.UnlockEvent{{Date: testNow.Add(24 * time.Hour), Share: 0.5}}, testNow)
	far := Pressure([]domain.UnlockEvent{{Date: testNow.Add(45 * 24 * time.Hour), Share: 0.5}}, testNow)
	assert.Greater(t, near, far)
}

func TestPressureSumsEvents(t *testing.T) {
	events := []domain.UnlockEvent{
		{Date: testNow, Share: 0.2},
		{Date: testNow.Add(30 * 24 * time.Hour), Share: 0.2},
	}
	want := 0.2 + 0.2*math.Exp(-1)
	assert.InDelta(t, want, Pressure(events, testNow), 1e-9)
}

func TestPressureClampsToOne(t *testing.T) {
	events := []domain.UnlockEvent{
		{Date: testNow, Share: 0.8},
		{Date: testNow, Share: 0.8},
	}
	assert.Equal(t, 1.0, Pressure(events, testNow))
}

func TestPressureClampsShares(t *testing.T) {
	// Out-of-range shares are clamped per event, not rejected.
	events := []domain.UnlockEvent{
		{Date: testNow, Share: -0.5},
		{Date: testNow, Share: 1.4},
	}
	assert.Equal(t, 1.0, Pressure(events, testNow))

	only := []domain.UnlockEvent{{Date: testNow, Share: -0.5}}
	assert.Equal(t, 0.0, Pressure(only, testNow))
}
