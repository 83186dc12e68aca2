package deck

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// LookupSSN reads the smoothed sunspot number for a year-month from an
// SSN forecast file. Lines carry "<year> <month> ... <ssn>" with the
// value in the fifth field. Forecasts for the current year onward are
// damped to 70% because published values run optimistic.
func LookupSSN(path string, year, month int, now time.Time) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	target := fmt.Sprintf("%d %02d", year, month)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, target) {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 5 {
			break
		}
		value, err := strconv.ParseFloat(parts[4], 64)
		if err != nil {
			break
		}
		if year >= now.UTC().Year() {
			value = roundHalfUp(value * 0.7)
		}
		ssn := int(value)
		if ssn < 0 || ssn > 300 {
			return 0, fmt.Errorf("ssn %d for %s %d outside 0..300", ssn, MonthName(month), year)
		}
		return ssn, nil
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("no ssn entry for %s %d in %s", MonthName(month), year, path)
}

func roundHalfUp(n float64) float64 {
	return math.Floor(n + 0.5)
}
