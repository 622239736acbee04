package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProj4(t *testing.T) {
	params, err := ParseProj4("+proj=utm +zone=14 +south +datum=WGS84 +units=m +no_defs")
	require.NoError(t, err)

	assert.Equal(t, "utm", params["proj"])
	assert.Equal(t, "14", params["zone"])
	assert.Equal(t, "WGS84", params["datum"])

	_, hasSouth := params["south"]
	assert.True(t, hasSouth)
	assert.Equal(t, "", params["south"])

	_, err = ParseProj4("proj=utm")
	require.Error(t, err, "missing '+' prefix")
}

func TestProj4RoundTrip(t *testing.T) {
	for _, code := range []int{4326, 3857, 32614, 32733} {
		crs, err := LookupEPSG(code)
		require.NoError(t, err)

		back, err := CRSFromProj4(crs.Proj4())
		require.NoError(t, err, "EPSG:%d", code)
		assert.Equal(t, code, back.Code)
	}
}

func TestCRSFromProj4_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing proj", "+datum=WGS84"},
		{"unsupported proj", "+proj=lcc +lat_1=33"},
		{"bad zone", "+proj=utm +zone=nope"},
		{"zone out of range", "+proj=utm +zone=61"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CRSFromProj4(tt.input)
			require.Error(t, err)
		})
	}
}
