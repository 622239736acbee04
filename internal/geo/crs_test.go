package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupEPSG(t *testing.T) {
	t.Run("WGS84 geographic", func(t *testing.T) {
		crs, err := LookupEPSG(4326)
		require.NoError(t, err)
		assert.Equal(t, "WGS 84", crs.Name)
		assert.True(t, crs.IsGeographic())
		assert.Equal(t, "degree", crs.Unit)
		assert.Nil(t, crs.Projection)
		assert.Equal(t, "EPSG:4326", crs.String())
	})

	t.Run("web mercator", func(t *testing.T) {
		crs, err := LookupEPSG(3857)
		require.NoError(t, err)
		assert.False(t, crs.IsGeographic())
		require.NotNil(t, crs.Projection)
		assert.Equal(t, "merc", crs.Projection.Method)
		assert.Equal(t, "metre", crs.Unit)
	})

	t.Run("UTM north", func(t *testing.T) {
		crs, err := LookupEPSG(32614)
		require.NoError(t, err)
		assert.Equal(t, "WGS 84 / UTM zone 14N", crs.Name)
		require.NotNil(t, crs.Projection)
		assert.Equal(t, 14, crs.Projection.Zone)
		assert.False(t, crs.Projection.South)
		assert.Equal(t, -99.0, crs.Projection.CentralMeridian)
		assert.Equal(t, 0.9996, crs.Projection.ScaleFactor)
		assert.Equal(t, 0.0, crs.Projection.FalseNorthing)
	})

	t.Run("UTM south", func(t *testing.T) {
		crs, err := LookupEPSG(32733)
		require.NoError(t, err)
		assert.Equal(t, "WGS 84 / UTM zone 33S", crs.Name)
		assert.True(t, crs.Projection.South)
		assert.Equal(t, 10000000.0, crs.Projection.FalseNorthing)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := LookupEPSG(27700)
		require.ErrorIs(t, err, ErrUnknownCRS)
	})
}

func TestUTMZoneFor(t *testing.T) {
	tests := []struct {
		name     string
		lon, lat float64
		want     int
	}{
		{"central texas", -98.44, 31.02, 32614},
		{"oklahoma", -95.77, 34.96, 32615},
		{"greenwich", 0.1, 51.5, 32631},
		{"southern hemisphere", 18.4, -33.9, 32734},
		{"date line west", 179.9, 10, 32660},
		{"date line east", -179.9, 10, 32601},
		{"wrapped longitude", 181.0, 10, 32601},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UTMZoneFor(tt.lon, tt.lat))
		})
	}
}

func TestEllipsoid(t *testing.T) {
	assert.InDelta(t, 0.00669437999, WGS84.E2(), 1e-10)
	assert.InDelta(t, 1/298.257223563, WGS84.F(), 1e-15)
}
