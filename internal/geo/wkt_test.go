package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWKT(t *testing.T) {
	t.Run("simple node", func(t *testing.T) {
		node, err := ParseWKT(`UNIT["metre",1]`)
		require.NoError(t, err)
		assert.Equal(t, "UNIT", node.Keyword)
		require.Len(t, node.Attrs, 2)
		assert.Equal(t, "metre", node.Attrs[0].Text)
		assert.Equal(t, 1.0, node.Attrs[1].Number)
	})

	t.Run("nested nodes", func(t *testing.T) {
		node, err := ParseWKT(`DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]]`)
		require.NoError(t, err)
		assert.Equal(t, "DATUM", node.Keyword)
		assert.Equal(t, "WGS_1984", node.Name())

		sph := node.Find("SPHEROID")
		require.NotNil(t, sph)
		assert.Equal(t, "WGS 84", sph.Name())
		assert.Equal(t, 6378137.0, sph.Attrs[1].Number)
	})

	t.Run("escaped quotes", func(t *testing.T) {
		node, err := ParseWKT(`GEOGCS["say ""hi"""]`)
		require.NoError(t, err)
		assert.Equal(t, `say "hi"`, node.Name())
	})

	t.Run("whitespace tolerated", func(t *testing.T) {
		node, err := ParseWKT(" GEOGCS [ \"WGS 84\" ,\n  UNIT[\"degree\", 0.0174532925199433] ] ")
		require.NoError(t, err)
		assert.NotNil(t, node.Find("UNIT"))
	})

	t.Run("trailing input rejected", func(t *testing.T) {
		_, err := ParseWKT(`UNIT["metre",1]garbage[1]`)
		require.Error(t, err)
	})

	t.Run("unterminated node", func(t *testing.T) {
		_, err := ParseWKT(`GEOGCS["WGS 84"`)
		require.Error(t, err)
	})

	t.Run("unterminated string", func(t *testing.T) {
		_, err := ParseWKT(`GEOGCS["WGS 84]`)
		require.Error(t, err)
	})
}

func TestWKTAuthority(t *testing.T) {
	node, err := ParseWKT(`UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]]`)
	require.NoError(t, err)

	name, code, ok := node.Authority()
	require.True(t, ok)
	assert.Equal(t, "EPSG", name)
	assert.Equal(t, 9122, code)

	bare, err := ParseWKT(`UNIT["metre",1]`)
	require.NoError(t, err)
	_, _, ok = bare.Authority()
	assert.False(t, ok)
}

func TestCRSWKTRoundTrip(t *testing.T) {
	for _, code := range []int{4326, 3857, 32614, 32733} {
		crs, err := LookupEPSG(code)
		require.NoError(t, err)

		wkt := crs.WKT()
		parsed, err := ParseWKT(wkt)
		require.NoError(t, err, "EPSG:%d", code)

		_, authCode, ok := parsed.Authority()
		require.True(t, ok, "EPSG:%d has no authority", code)
		assert.Equal(t, code, authCode)

		back, err := CRSFromWKT(wkt)
		require.NoError(t, err)
		assert.Equal(t, code, back.Code)
	}
}

func TestCRSFromWKT_NoAuthority(t *testing.T) {
	t.Run("geographic falls back to 4326", func(t *testing.T) {
		crs, err := CRSFromWKT(`GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]]]`)
		require.NoError(t, err)
		assert.Equal(t, 4326, crs.Code)
	})

	t.Run("transverse mercator resolved by central meridian", func(t *testing.T) {
		wkt := `PROJCS["UTM 14N",GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]]],` +
			`PROJECTION["Transverse_Mercator"],PARAMETER["central_meridian",-99],PARAMETER["false_northing",0]]`
		crs, err := CRSFromWKT(wkt)
		require.NoError(t, err)
		assert.Equal(t, 32614, crs.Code)
	})

	t.Run("southern zone resolved by false northing", func(t *testing.T) {
		wkt := `PROJCS["UTM 33S",GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]]],` +
			`PROJECTION["Transverse_Mercator"],PARAMETER["central_meridian",15],PARAMETER["false_northing",10000000]]`
		crs, err := CRSFromWKT(wkt)
		require.NoError(t, err)
		assert.Equal(t, 32733, crs.Code)
	})

	t.Run("unsupported projection", func(t *testing.T) {
		wkt := `PROJCS["x",GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]]],PROJECTION["Lambert_Conformal_Conic_2SP"]]`
		_, err := CRSFromWKT(wkt)
		require.Error(t, err)
	})
}
