// Package geo implements the coordinate reference system (CRS) support the
// analysis service needs: a small EPSG registry, WKT 1 and PROJ.4 codecs,
// and point transforms between the registry systems.
//
// # Registry
//
// Every CRS here is WGS84-based. The registry covers:
//
//	EPSG:4326        WGS 84 geographic lon/lat (degrees)
//	EPSG:3857        Web Mercator / Pseudo-Mercator (metres)
//	EPSG:32601-32660 WGS 84 UTM zones 1-60 north (metres)
//	EPSG:32701-32760 WGS 84 UTM zones 1-60 south (metres)
//
// Datum shifts and non-WGS84 ellipsoids are out of scope; upstream storm data
// is always WGS84 and the network sources this service consumes are GeoJSON,
// which mandates WGS84.
//
// # Representations
//
// A CRS can be rendered as WKT 1 ([CRS.WKT]) or as a PROJ.4 parameter string
// ([CRS.Proj4]), and both forms resolve back to registry entries
// ([CRSFromWKT], [CRSFromProj4]). WKT is the canonical representation; the
// PROJ.4 strings exist for interoperability with tooling that still consumes
// them and are lossy by nature (a string like "+proj=longlat +datum=WGS84"
// carries no authority metadata).
//
// # Transforms
//
// [Transform] routes through geographic WGS84. Web Mercator uses the
// spherical formulation that defines EPSG:3857; UTM uses the ellipsoidal
// transverse Mercator series (Snyder), accurate to well under a metre within
// a zone. Points are orb.Point values: {lon, lat} degrees for geographic
// systems, {easting, northing} metres for projected ones.
package geo
