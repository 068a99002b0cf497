// Package groundstation implements component C13, the ground-station
// locator: resolving a RoutingTag's source/destination fixes to geodetic
// points and S2 cells for metrics, and converting UTM fixes to lat/lon.
// Config has no UTM fields and nothing converts fixes at startup; ToLatLon
// is a standalone helper. Grounded on the teacher's own
// src/coordconv.go hemisphere helpers and its cmd/samoyed-ll2utm and
// cmd/samoyed-utm2ll conversion idioms.
package groundstation

import (
	"math"

	"github.com/tzneal/coordconv"
)

// HemisphereRuneToCoordconvHemisphere maps the single-letter hemisphere
// notation used in config files ('N'/'S') onto coordconv.Hemisphere.
func HemisphereRuneToCoordconvHemisphere(hemi rune) coordconv.Hemisphere {
	switch hemi {
	case 'N':
		return coordconv.HemisphereNorth
	case 'S':
		return coordconv.HemisphereSouth
	default:
		return coordconv.HemisphereInvalid
	}
}

// HemisphereToRune is the inverse of HemisphereRuneToCoordconvHemisphere.
func HemisphereToRune(h coordconv.Hemisphere) rune {
	switch h {
	case coordconv.HemisphereNorth:
		return 'N'
	case coordconv.HemisphereSouth:
		return 'S'
	case coordconv.HemisphereInvalid:
		return '!'
	default:
		return '?'
	}
}

// UTMFix is a ground-station fix in UTM form: a zone, hemisphere letter,
// and easting/northing in meters. internal/config does not load these.
type UTMFix struct {
	Zone       int
	Hemisphere rune
	Easting    float64
	Northing   float64
}

// ToLatLon converts a UTM fix to decimal-degree lat/lon. No code in this
// module calls it.
func ToLatLon(fix UTMFix) (lat, lon float64, err error) {
	utm := coordconv.UTMCoord{
		Zone:       fix.Zone,
		Hemisphere: HemisphereRuneToCoordconvHemisphere(fix.Hemisphere),
		Easting:    fix.Easting,
		Northing:   fix.Northing,
	}
	latlng, convErr := coordconv.DefaultUTMConverter.ConvertToGeodetic(utm)
	if convErr != nil {
		return 0, 0, convErr
	}
	return radToDeg(float64(latlng.Lat)), radToDeg(float64(latlng.Lng)), nil
}

func radToDeg(r float64) float64 {
	return r * 180.0 / math.Pi
}
