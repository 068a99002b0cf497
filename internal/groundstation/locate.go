package groundstation

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"github.com/spacelinkd/corecomm/internal/model"
)

func latLng(st *model.GroundStation) s2.LatLng {
	return s2.LatLng{
		Lat: s1.Angle(st.Lat * math.Pi / 180.0),
		Lng: s1.Angle(st.Lon * math.Pi / 180.0),
	}
}

// CellID returns the S2 cell covering a ground station, for log/metric
// grouping only (SPEC_FULL §GLOSSARY: never used in routing decisions).
func CellID(st *model.GroundStation) uint64 {
	if st == nil {
		return 0
	}
	return uint64(s2.CellIDFromLatLng(latLng(st)))
}

// RouteDistanceKM returns the great-circle distance between a routing tag's
// source and destination stations, or false if either is absent. Pure
// function, no shared state (SPEC_FULL §4 C13).
func RouteDistanceKM(tag model.RoutingTag) (km float64, ok bool) {
	if tag.SourceStation == nil || tag.DestStation == nil {
		return 0, false
	}
	a := latLng(tag.SourceStation)
	b := latLng(tag.DestStation)
	angle := a.Distance(b)
	const earthRadiusKM = 6371.0088
	return float64(angle) * earthRadiusKM, true
}
