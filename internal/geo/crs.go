package geo

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownCRS is returned when an EPSG code is not in the registry.
var ErrUnknownCRS = errors.New("unknown CRS")

// Ellipsoid describes a reference ellipsoid by semi-major axis and inverse flattening.
type Ellipsoid struct {
	Name string
	A    float64 // semi-major axis, metres
	InvF float64 // inverse flattening (0 for a sphere)
}

// WGS84 is the reference ellipsoid used by every CRS in the registry.
var WGS84 = Ellipsoid{Name: "WGS 84", A: 6378137, InvF: 298.257223563}

// F returns the flattening.
func (e Ellipsoid) F() float64 {
	if e.InvF == 0 {
		return 0
	}
	return 1 / e.InvF
}

// E2 returns the first eccentricity squared.
func (e Ellipsoid) E2() float64 {
	f := e.F()
	return f * (2 - f)
}

// Kind distinguishes geographic (angular) from projected (planar) systems.
type Kind int

const (
	KindGeographic Kind = iota
	KindProjected
)

func (k Kind) String() string {
	if k == KindProjected {
		return "projected"
	}
	return "geographic"
}

// Projection holds the parameters of a projected CRS. Method values match
// PROJ.4 +proj names ("merc", "utm").
type Projection struct {
	Method          string
	CentralMeridian float64 // degrees
	LatitudeOrigin  float64 // degrees
	ScaleFactor     float64
	FalseEasting    float64 // metres
	FalseNorthing   float64 // metres

	// UTM bookkeeping, set when Method == "utm".
	Zone  int
	South bool
}

// CRS is a coordinate reference system from the registry. All registry CRSs
// are WGS84-based; datum shifts are out of scope for this service.
type CRS struct {
	Code       int
	Name       string
	Kind       Kind
	Ellipsoid  Ellipsoid
	Projection *Projection // nil for geographic systems
	Unit       string      // "degree" or "metre"
}

// IsGeographic reports whether coordinates are lon/lat degrees.
func (c CRS) IsGeographic() bool { return c.Kind == KindGeographic }

// String returns the authority form, e.g. "EPSG:4326".
func (c CRS) String() string { return fmt.Sprintf("EPSG:%d", c.Code) }

// LookupEPSG resolves an EPSG code to a CRS definition. The registry covers
// WGS84 geographic (4326), Web Mercator (3857), and the WGS84 UTM zones
// (32601-32660 north, 32701-32760 south).
func LookupEPSG(code int) (CRS, error) {
	switch {
	case code == 4326:
		return CRS{
			Code:      4326,
			Name:      "WGS 84",
			Kind:      KindGeographic,
			Ellipsoid: WGS84,
			Unit:      "degree",
		}, nil
	case code == 3857:
		return CRS{
			Code:      3857,
			Name:      "WGS 84 / Pseudo-Mercator",
			Kind:      KindProjected,
			Ellipsoid: WGS84,
			Unit:      "metre",
			Projection: &Projection{
				Method:      "merc",
				ScaleFactor: 1,
			},
		}, nil
	case code >= 32601 && code <= 32660:
		return utmCRS(code, code-32600, false), nil
	case code >= 32701 && code <= 32760:
		return utmCRS(code, code-32700, true), nil
	default:
		return CRS{}, fmt.Errorf("%w: EPSG:%d", ErrUnknownCRS, code)
	}
}

func utmCRS(code, zone int, south bool) CRS {
	hemi := "N"
	fn := 0.0
	if south {
		hemi = "S"
		fn = 10000000
	}
	return CRS{
		Code:      code,
		Name:      fmt.Sprintf("WGS 84 / UTM zone %d%s", zone, hemi),
		Kind:      KindProjected,
		Ellipsoid: WGS84,
		Unit:      "metre",
		Projection: &Projection{
			Method:          "utm",
			CentralMeridian: float64(zone*6 - 183),
			ScaleFactor:     0.9996,
			FalseEasting:    500000,
			FalseNorthing:   fn,
			Zone:            zone,
			South:           south,
		},
	}
}

// UTMZoneFor returns the EPSG code of the WGS84 UTM zone containing the
// given lon/lat. Longitudes are normalised to [-180, 180).
func UTMZoneFor(lon, lat float64) int {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	zone := int(lon/6) + 1
	if zone > 60 {
		zone = 60
	}
	if lat < 0 {
		return 32700 + zone
	}
	return 32600 + zone
}
