// Package maidenhead converts between Maidenhead grid locators and
// latitude/longitude. VOACAP decks and headers carry transmitter
// positions as 6-character locators (e.g. KP03qa), so both directions
// must agree to within the smallest-cell resolution: 1/48 degree of
// latitude and 1/24 degree of longitude at 6 characters.
package maidenhead

import (
	"fmt"
	"math"
	"strings"
)

// InvalidLocatorError reports a locator that cannot be decoded.
type InvalidLocatorError struct {
	Locator string
	Reason  string
}

func (e *InvalidLocatorError) Error() string {
	return fmt.Sprintf("invalid locator %q: %s", e.Locator, e.Reason)
}

// ToLatLon decodes a 4- or 6-character locator into the latitude and
// longitude of the center of the smallest cell the locator names.
// Input case is ignored.
func ToLatLon(locator string) (lat, lon float64, err error) {
	loc := strings.ToUpper(strings.TrimSpace(locator))
	if len(loc) < 4 {
		return 0, 0, &InvalidLocatorError{locator, "fewer than 4 characters"}
	}
	if len(loc)%2 != 0 {
		return 0, 0, &InvalidLocatorError{locator, "odd length"}
	}
	if len(loc) > 6 {
		loc = loc[:6]
	}

	// Field pair: 20x10 degree cells, A..R.
	if loc[0] < 'A' || loc[0] > 'R' || loc[1] < 'A' || loc[1] > 'R' {
		return 0, 0, &InvalidLocatorError{locator, "field characters out of range A-R"}
	}
	lon = float64(loc[0]-'A')*20 - 180
	lat = float64(loc[1]-'A')*10 - 90

	// Square pair: 2x1 degree cells, 0..9.
	if loc[2] < '0' || loc[2] > '9' || loc[3] < '0' || loc[3] > '9' {
		return 0, 0, &InvalidLocatorError{locator, "square characters out of range 0-9"}
	}
	lon += float64(loc[2]-'0') * 2
	lat += float64(loc[3] - '0')

	if len(loc) < 6 {
		// Center of the 2x1 degree square.
		return lat + 0.5, lon + 1, nil
	}

	// Subsquare pair: 24x24 subdivision, A..X, plus the center offset.
	if loc[4] < 'A' || loc[4] > 'X' || loc[5] < 'A' || loc[5] > 'X' {
		return 0, 0, &InvalidLocatorError{locator, "subsquare characters out of range A-X"}
	}
	lon += float64(loc[4]-'A')/12 + 1.0/24
	lat += float64(loc[5]-'A')/24 + 1.0/48
	return lat, lon, nil
}

// FromLatLon encodes a position as a locator of the given precision in
// character pairs (3 pairs -> 6 characters). Characters 5-6 are
// rendered lower-case per convention, everything else upper-case.
func FromLatLon(lat, lon float64, pairs int) string {
	if pairs < 2 {
		pairs = 2
	}
	lonQ, lonR := divmod(lon+180, 20)
	latQ, latR := divmod(lat+90, 10)
	b := []byte{byte('A' + int(lonQ)), byte('A' + int(latQ))}
	lonR /= 2

	for i := 2; i <= pairs; i++ {
		lonQ, lonR = divmod(lonR, 1)
		latQ, latR = divmod(latR, 1)
		if i%2 == 0 {
			b = append(b, byte('0'+int(lonQ)), byte('0'+int(latQ)))
			lonR *= 24
			latR *= 24
		} else {
			b = append(b, byte('A'+int(lonQ)), byte('A'+int(latQ)))
			lonR *= 10
			latR *= 10
		}
	}

	s := strings.ToUpper(string(b))
	if len(s) >= 6 {
		s = s[:4] + strings.ToLower(s[4:6]) + s[6:]
	}
	return s
}

func divmod(x, y float64) (q, r float64) {
	q = math.Floor(x / y)
	return q, x - q*y
}
