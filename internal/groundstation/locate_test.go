package groundstation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spacelinkd/corecomm/internal/model"
)

func TestRouteDistanceKM_KnownCities(t *testing.T) {
	// Boston to New York, roughly 306 km great-circle.
	boston := &model.GroundStation{Name: "BOS", Lat: 42.3601, Lon: -71.0589}
	nyc := &model.GroundStation{Name: "NYC", Lat: 40.7128, Lon: -74.0060}

	tag := model.RoutingTag{SourceStation: boston, DestStation: nyc}
	km, ok := RouteDistanceKM(tag)
	require := assert.New(t)
	require.True(ok)
	require.InDelta(306, km, 15)
}

func TestRouteDistanceKM_MissingStationIsFalse(t *testing.T) {
	tag := model.RoutingTag{SourceStation: &model.GroundStation{Name: "BOS"}}
	_, ok := RouteDistanceKM(tag)
	assert.False(t, ok)
}

func TestCellID_NilIsZero(t *testing.T) {
	assert.Equal(t, uint64(0), CellID(nil))
}

func TestCellID_DistinctStationsDistinctCells(t *testing.T) {
	a := CellID(&model.GroundStation{Name: "A", Lat: 10, Lon: 10})
	b := CellID(&model.GroundStation{Name: "B", Lat: -40, Lon: 150})
	assert.NotEqual(t, a, b)
}

func TestHemisphereRuneRoundTrip(t *testing.T) {
	for _, r := range []rune{'N', 'S'} {
		h := HemisphereRuneToCoordconvHemisphere(r)
		assert.Equal(t, r, HemisphereToRune(h))
	}
}
