package costs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fleetsim/optimizer/pkg/domain"
)

func TestRelocation(t *testing.T) {
	cfg := domain.CostConfig{RelocationBase: 1000, RelocationPerKM: 1, RelocationPerHour: 150}
	r := domain.Relation{DistanceKM: 50, TravelMinutes: 60}

	got := Relocation(r, cfg)

	assert.Equal(t, 1000.0+50*1+1*150, got)
}

func TestOverage_NoExcess(t *testing.T) {
	assert.Equal(t, 0.0, Overage(10000, 150000, 0.92))
}

func TestOverage_WithExcess(t *testing.T) {
	got := Overage(151000, 150000, 0.92)
	assert.InDelta(t, 920.0, got, 0.001)
}

func TestAssignment_NoRelocationNoService(t *testing.T) {
	cfg := domain.DefaultConfig()
	b := Assignment(domain.Relation{}, false, 10000, 150000, false, cfg)

	assert.Equal(t, 0.0, b.Relocation)
	assert.Equal(t, 0.0, b.Overage)
	assert.Equal(t, 0.0, b.ServicePenalty)
	assert.Equal(t, 0.0, b.Total)
}

func TestAssignment_WithServicePenalty(t *testing.T) {
	cfg := domain.DefaultConfig()
	b := Assignment(domain.Relation{}, false, 10000, 150000, true, cfg)

	assert.Equal(t, cfg.Service.Penalty, b.ServicePenalty)
	assert.Equal(t, cfg.Service.Penalty, b.Total)
}
