// Package deck builds VOACAP input decks and drives the external
// voacapl predictor. Deck lines are fixed-width; the widths here must
// match what voacapl's card reader expects.
package deck

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the prediction setup read from voacap.ini.
type Config struct {
	// [default]
	TxLat    float64
	TxLon    float64
	Power    float64
	Mode     int
	Es       float64
	Method   int
	MinToa   float64
	Noise    int
	GridSize int
	PathFlag string

	// [frequency]
	FList []string

	// [antenna] keyed by frequency string, e.g. "14.100".
	TxAnt map[string]string
	RxAnt map[string]string
}

// defaultAntKey is the 10 m entry, the historical fallback band.
const defaultAntKey = "28.200"

// LoadConfig reads voacap.ini. Sections: [default] for site and model
// parameters, [frequency] for the run list, [antenna] for per-band
// antenna files keyed txant<band>/rxant<band>.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg := &Config{
		TxLat:    v.GetFloat64("default.txlat"),
		TxLon:    v.GetFloat64("default.txlon"),
		Power:    v.GetFloat64("default.power"),
		Mode:     v.GetInt("default.mode"),
		Es:       v.GetFloat64("default.es"),
		Method:   v.GetInt("default.method"),
		MinToa:   v.GetFloat64("default.mintoa"),
		Noise:    v.GetInt("default.noise"),
		GridSize: v.GetInt("default.gridsize"),
		PathFlag: v.GetString("default.path"),
		FList:    strings.Fields(v.GetString("frequency.flist")),
		TxAnt:    make(map[string]string),
		RxAnt:    make(map[string]string),
	}

	for key, value := range v.GetStringMapString("antenna") {
		switch {
		case strings.HasPrefix(key, "txant"):
			cfg.TxAnt[antKey(key)] = value
		case strings.HasPrefix(key, "rxant"):
			cfg.RxAnt[antKey(key)] = value
		}
	}

	if len(cfg.FList) == 0 {
		return nil, fmt.Errorf("%s: frequency.flist is empty", path)
	}
	return cfg, nil
}

// AntennasFor returns the tx and rx antenna files for a frequency,
// falling back to the 10 m entry for unmapped bands.
func (c *Config) AntennasFor(freq string) (tx, rx string) {
	key := strings.TrimSpace(freq)
	if key == "" {
		key = defaultAntKey
	}
	tx = c.TxAnt[key]
	rx = c.RxAnt[key]
	if tx == "" {
		tx = c.TxAnt[defaultAntKey]
	}
	if rx == "" {
		rx = c.RxAnt[defaultAntKey]
	}
	return tx, rx
}

// antKey maps an INI antenna key suffix (amateur band in meters) to
// the frequency string used for deck lookup.
func antKey(k string) string {
	switch {
	case strings.HasSuffix(k, "80"):
		return "3.500"
	case strings.HasSuffix(k, "60"):
		return "5.300"
	case strings.HasSuffix(k, "40"):
		return "7.100"
	case strings.HasSuffix(k, "30"):
		return "10.100"
	case strings.HasSuffix(k, "20"):
		return "14.100"
	case strings.HasSuffix(k, "17"):
		return "18.100"
	case strings.HasSuffix(k, "15"):
		return "21.200"
	case strings.HasSuffix(k, "12"):
		return "24.900"
	case strings.HasSuffix(k, "10"):
		return "28.200"
	default:
		return defaultAntKey
	}
}
