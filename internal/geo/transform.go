package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// webMercatorMaxLat is the latitude at which the square Web Mercator world
// ends. Latitudes beyond it are clamped before projecting.
const webMercatorMaxLat = 85.06

// Transform converts a point from one registry CRS to another, routing
// through geographic WGS84. Geographic points are orb.Point{lon, lat} in
// degrees; projected points are {easting, northing} in metres.
func Transform(from, to CRS, p orb.Point) (orb.Point, error) {
	if from.Code == to.Code {
		return p, nil
	}
	geo, err := toGeographic(from, p)
	if err != nil {
		return orb.Point{}, err
	}
	return fromGeographic(to, geo)
}

// TransformAll converts a slice of points between two registry CRSs.
func TransformAll(from, to CRS, pts []orb.Point) ([]orb.Point, error) {
	out := make([]orb.Point, len(pts))
	for i, p := range pts {
		tp, err := Transform(from, to, p)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		out[i] = tp
	}
	return out, nil
}

func toGeographic(from CRS, p orb.Point) (orb.Point, error) {
	if from.IsGeographic() {
		return p, nil
	}
	switch from.Projection.Method {
	case "merc":
		return webMercatorInverse(p), nil
	case "utm":
		return transverseMercatorInverse(from.Ellipsoid, from.Projection, p), nil
	default:
		return orb.Point{}, fmt.Errorf("transform: unsupported method %q", from.Projection.Method)
	}
}

func fromGeographic(to CRS, p orb.Point) (orb.Point, error) {
	if to.IsGeographic() {
		return p, nil
	}
	switch to.Projection.Method {
	case "merc":
		return webMercatorForward(p), nil
	case "utm":
		return transverseMercatorForward(to.Ellipsoid, to.Projection, p), nil
	default:
		return orb.Point{}, fmt.Errorf("transform: unsupported method %q", to.Projection.Method)
	}
}

// webMercatorForward projects lon/lat degrees to EPSG:3857 metres using the
// spherical formulation (the defining trait of Pseudo-Mercator: ellipsoidal
// coordinates on a spherical projection).
func webMercatorForward(p orb.Point) orb.Point {
	lat := p[1]
	if lat > webMercatorMaxLat {
		lat = webMercatorMaxLat
	}
	if lat < -webMercatorMaxLat {
		lat = -webMercatorMaxLat
	}
	x := WGS84.A * rad(p[0])
	y := WGS84.A * math.Log(math.Tan(math.Pi/4+rad(lat)/2))
	return orb.Point{x, y}
}

func webMercatorInverse(p orb.Point) orb.Point {
	lon := deg(p[0] / WGS84.A)
	lat := deg(2*math.Atan(math.Exp(p[1]/WGS84.A)) - math.Pi/2)
	return orb.Point{lon, lat}
}

// transverseMercatorForward projects lon/lat degrees to projected metres with
// the ellipsoidal series expansion (Snyder, Map Projections — A Working
// Manual, eqs. 8-9..8-15). Accurate to well under a metre inside a UTM zone.
func transverseMercatorForward(ell Ellipsoid, proj *Projection, p orb.Point) orb.Point {
	a := ell.A
	e2 := ell.E2()
	ep2 := e2 / (1 - e2)
	k0 := proj.ScaleFactor

	phi := rad(p[1])
	lam := rad(p[0])
	lam0 := rad(proj.CentralMeridian)
	phi0 := rad(proj.LatitudeOrigin)

	sinPhi := math.Sin(phi)
	cosPhi := math.Cos(phi)
	tanPhi := math.Tan(phi)

	n := a / math.Sqrt(1-e2*sinPhi*sinPhi)
	t := tanPhi * tanPhi
	c := ep2 * cosPhi * cosPhi
	bigA := (lam - lam0) * cosPhi

	m := meridianArc(a, e2, phi)
	m0 := meridianArc(a, e2, phi0)

	x := k0*n*(bigA+(1-t+c)*math.Pow(bigA, 3)/6+
		(5-18*t+t*t+72*c-58*ep2)*math.Pow(bigA, 5)/120) + proj.FalseEasting
	y := k0*(m-m0+n*tanPhi*(bigA*bigA/2+
		(5-t+9*c+4*c*c)*math.Pow(bigA, 4)/24+
		(61-58*t+t*t+600*c-330*ep2)*math.Pow(bigA, 6)/720)) + proj.FalseNorthing

	return orb.Point{x, y}
}

func transverseMercatorInverse(ell Ellipsoid, proj *Projection, p orb.Point) orb.Point {
	a := ell.A
	e2 := ell.E2()
	ep2 := e2 / (1 - e2)
	k0 := proj.ScaleFactor

	x := p[0] - proj.FalseEasting
	y := p[1] - proj.FalseNorthing

	m0 := meridianArc(a, e2, rad(proj.LatitudeOrigin))
	m := m0 + y/k0

	// Footpoint latitude (Snyder eqs. 3-24, 7-19).
	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))
	mu := m / (a * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256))
	phi1 := mu +
		(3*e1/2-27*math.Pow(e1, 3)/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*math.Pow(e1, 4)/32)*math.Sin(4*mu) +
		(151*math.Pow(e1, 3)/96)*math.Sin(6*mu) +
		(1097*math.Pow(e1, 4)/512)*math.Sin(8*mu)

	sinPhi1 := math.Sin(phi1)
	cosPhi1 := math.Cos(phi1)
	tanPhi1 := math.Tan(phi1)

	c1 := ep2 * cosPhi1 * cosPhi1
	t1 := tanPhi1 * tanPhi1
	n1 := a / math.Sqrt(1-e2*sinPhi1*sinPhi1)
	r1 := a * (1 - e2) / math.Pow(1-e2*sinPhi1*sinPhi1, 1.5)
	d := x / (n1 * k0)

	phi := phi1 - (n1*tanPhi1/r1)*(d*d/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*math.Pow(d, 4)/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*math.Pow(d, 6)/720)
	lam := rad(proj.CentralMeridian) + (d-
		(1+2*t1+c1)*math.Pow(d, 3)/6+
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*math.Pow(d, 5)/120)/cosPhi1

	return orb.Point{deg(lam), deg(phi)}
}

// meridianArc is the distance along the meridian from the equator to
// latitude phi (Snyder eq. 3-21).
func meridianArc(a, e2, phi float64) float64 {
	return a * ((1-e2/4-3*e2*e2/64-5*e2*e2*e2/256)*phi -
		(3*e2/8+3*e2*e2/32+45*e2*e2*e2/1024)*math.Sin(2*phi) +
		(15*e2*e2/256+45*e2*e2*e2/1024)*math.Sin(4*phi) -
		(35*e2*e2*e2/3072)*math.Sin(6*phi))
}

func rad(d float64) float64 { return d * math.Pi / 180 }
func deg(r float64) float64 { return r * 180 / math.Pi }
