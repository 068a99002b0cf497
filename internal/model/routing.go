package model

// GroundStation identifies a named ground station by its geodetic fix, as
// recovered from original_source's free-form routing metadata (SPEC_FULL
// §3). The scheduler never branches on it; it exists purely for the
// ground-station locator (C13) to resolve into metrics.
type GroundStation struct {
	Name string
	Lat  float64
	Lon  float64
}

// RoutingTag carries the optional source/destination/band tags spec.md §3
// names. All fields are optional metadata, consulted only by metrics and
// the ground-station locator — never by admission or dispatch logic.
type RoutingTag struct {
	Source      string
	Destination string
	FrequencyBand string
	SourceStation *GroundStation
	DestStation   *GroundStation
}
