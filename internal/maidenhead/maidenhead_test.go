package maidenhead_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voalab/voacap-apps/internal/maidenhead"
)

func TestToLatLonKnownSquares(t *testing.T) {
	lat, lon, err := maidenhead.ToLatLon("KP03QA")
	require.NoError(t, err)
	assert.InDelta(t, 63.0+1.0/48, lat, 1e-9)
	assert.InDelta(t, 21.0+4.0/12+1.0/24, lon, 1e-9)

	// 4-character locator decodes to the square center.
	lat, lon, err = maidenhead.ToLatLon("JJ00")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, lat, 1e-9)
	assert.InDelta(t, 1.0, lon, 1e-9)
}

func TestToLatLonCaseInsensitive(t *testing.T) {
	lat1, lon1, err := maidenhead.ToLatLon("KP03qa")
	require.NoError(t, err)
	lat2, lon2, err := maidenhead.ToLatLon("kp03QA")
	require.NoError(t, err)
	assert.Equal(t, lat1, lat2)
	assert.Equal(t, lon1, lon2)
}

func TestToLatLonRejectsMalformed(t *testing.T) {
	cases := []string{"", "K", "KP0", "KP0Z", "ZZ11", "KPA3QA", "KP03ZZ", "KP03Q"}
	for _, loc := range cases {
		_, _, err := maidenhead.ToLatLon(loc)
		assert.Error(t, err, "locator %q", loc)
		var invErr *maidenhead.InvalidLocatorError
		assert.ErrorAs(t, err, &invErr)
	}
}

func TestRoundTripPreservesCanonicalForm(t *testing.T) {
	for _, loc := range []string{"KP03qa", "JN58td", "FN31pr", "QF56od", "AA00aa", "RR99xx"} {
		lat, lon, err := maidenhead.ToLatLon(loc)
		require.NoError(t, err)
		assert.Equal(t, loc, maidenhead.FromLatLon(lat, lon, 3), "locator %q", loc)
	}
}

func TestDecodeEncodeResolution(t *testing.T) {
	// decode(encode(p, 3 pairs)) must land within half a subsquare.
	points := []struct{ lat, lon float64 }{
		{60.17, 24.94},
		{-33.87, 151.21},
		{0.001, 0.001},
		{-89.9, -179.9},
	}
	for _, p := range points {
		loc := maidenhead.FromLatLon(p.lat, p.lon, 3)
		lat, lon, err := maidenhead.ToLatLon(loc)
		require.NoError(t, err)
		assert.InDelta(t, p.lat, lat, 1.0/48, "lat of %q", loc)
		assert.InDelta(t, p.lon, lon, 1.0/24, "lon of %q", loc)
	}
}
