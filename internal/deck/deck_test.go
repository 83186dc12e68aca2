package deck_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voalab/voacap-apps/internal/deck"
)

func testConfig() *deck.Config {
	return &deck.Config{
		TxLat:    63.02,
		TxLon:    21.38,
		Power:    1.5,
		Mode:     45,
		Es:       0.7,
		Method:   30,
		MinToa:   3.0,
		Noise:    145,
		GridSize: 125,
		PathFlag: "0",
		FList:    []string{"3.500", "7.100"},
		TxAnt:    map[string]string{"7.100": "dipole.voa", "28.200": "vert.voa"},
		RxAnt:    map[string]string{"7.100": "dipole.voa", "28.200": "vert.voa"},
	}
}

func TestHoursBlockWraps(t *testing.T) {
	assert.Equal(t, []int{23, 0, 1}, deck.HoursBlock(23, 3))
	assert.Equal(t, []int{5}, deck.HoursBlock(5, 1))
}

func TestDeckBuildFieldWidths(t *testing.T) {
	d := &deck.Deck{
		Config: testConfig(),
		Year:   2026,
		Month:  7,
		SSN:    25,
		Hours:  deck.HoursBlock(23, 3),
		Freq:   "7.100",
	}

	lines := strings.Split(d.Build(), "\n")
	require.Len(t, lines, 19)

	byKey := map[string]string{}
	for _, line := range lines {
		key, _, ok := strings.Cut(line, ":")
		require.True(t, ok, line)
		byKey[strings.TrimSpace(key)] = line
	}

	assert.Equal(t, "Model    :VOACAP", byKey["Model"])
	assert.Equal(t, "Transmit :  63.02     21.38   KP03qa               0", byKey["Transmit"])
	assert.Equal(t, "Pcenter  :  63.02     21.38   KP03qa              ", byKey["Pcenter"])
	assert.Equal(t, "Area     :    -180.0     180.0     -90.0      90.0", byKey["Area"])
	assert.Equal(t, "Gridsize :  125    1", byKey["Gridsize"])
	assert.Equal(t, "Method   :   30", byKey["Method"])
	assert.Equal(t, "Months   :   7.00   7.00   7.00", byKey["Months"])
	assert.Equal(t, "Ssns     :     25     25     25", byKey["Ssns"])
	assert.Equal(t, "Hours    :     23      0      1", byKey["Hours"])
	assert.Equal(t, "Freqs    :  7.100  7.100  7.100", byKey["Freqs"])
	assert.Equal(t, "System   :  145     3.00   90   45     3.000     0.100", byKey["System"])
	assert.Equal(t, "Fprob    : 1.00 1.00 1.00 0.70", byKey["Fprob"])
	assert.Equal(t, "Rec Ants :[voaant/dipole.voa    ]  gain=   0.0   0.0", byKey["Rec Ants"])
	assert.Equal(t, "Tx Ants  :[voaant/dipole.voa    ]  0.000  -1.0     1.5000", byKey["Tx Ants"])
}

func TestDeckFileNameAndRunDir(t *testing.T) {
	d := &deck.Deck{Config: testConfig(), Year: 2026, Month: 10, Freq: "3.500"}
	assert.Equal(t, "cap_03.500.voa", d.FileName())
	assert.Equal(t, filepath.Join("root", "2026", "Oct", "3.500"), d.RunDir("root"))

	d.Freq = "14.100"
	assert.Equal(t, "cap_14.100.voa", d.FileName())
}

func TestDeckWriteAtomic(t *testing.T) {
	root := t.TempDir()
	d := &deck.Deck{
		Config: testConfig(),
		Year:   2026,
		Month:  7,
		SSN:    25,
		Hours:  deck.HoursBlock(0, 2),
		Freq:   "7.100",
	}

	path, err := d.Write(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "2026", "Jul", "7.100", "cap_07.100.voa"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(content), "\n"))
	assert.Contains(t, string(content), "Model    :VOACAP")

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestAntennasForFallback(t *testing.T) {
	cfg := testConfig()

	tx, rx := cfg.AntennasFor("7.100")
	assert.Equal(t, "dipole.voa", tx)
	assert.Equal(t, "dipole.voa", rx)

	tx, rx = cfg.AntennasFor("50.100")
	assert.Equal(t, "vert.voa", tx)
	assert.Equal(t, "vert.voa", rx)

	tx, rx = cfg.AntennasFor("")
	assert.Equal(t, "vert.voa", tx)
	assert.Equal(t, "vert.voa", rx)
}

func TestLoadConfig(t *testing.T) {
	ini := strings.Join([]string{
		"[default]",
		"txlat = 63.02",
		"txlon = 21.38",
		"power = 1.5",
		"mode = 45",
		"es = 0.7",
		"method = 30",
		"mintoa = 3.0",
		"noise = 145",
		"gridsize = 125",
		"path = 0",
		"",
		"[frequency]",
		"flist = 3.500 7.100 14.100",
		"",
		"[antenna]",
		"txant80 = dipole80.voa",
		"rxant80 = dipole80.voa",
		"txant10 = vert10.voa",
		"rxant10 = vert10.voa",
	}, "\n")
	path := filepath.Join(t.TempDir(), "voacap.ini")
	require.NoError(t, os.WriteFile(path, []byte(ini+"\n"), 0o644))

	cfg, err := deck.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 63.02, cfg.TxLat)
	assert.Equal(t, 125, cfg.GridSize)
	assert.Equal(t, []string{"3.500", "7.100", "14.100"}, cfg.FList)
	assert.Equal(t, "dipole80.voa", cfg.TxAnt["3.500"])
	assert.Equal(t, "vert10.voa", cfg.RxAnt["28.200"])
}

func TestLoadConfigRejectsEmptyFList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voacap.ini")
	require.NoError(t, os.WriteFile(path, []byte("[default]\ntxlat = 1\n"), 0o644))

	_, err := deck.LoadConfig(path)
	assert.Error(t, err)
}

func TestLookupSSN(t *testing.T) {
	ssnData := strings.Join([]string{
		"# year month -1 observed smoothed",
		"2024 07 -1 107.0 110.5",
		"2026 07 -1 107.0 110.5",
		"2026 08 -1 900.0 900.0",
	}, "\n")
	path := filepath.Join(t.TempDir(), "ssn.txt")
	require.NoError(t, os.WriteFile(path, []byte(ssnData+"\n"), 0o644))

	now := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	// Past year: taken as published.
	ssn, err := deck.LookupSSN(path, 2024, 7, now)
	require.NoError(t, err)
	assert.Equal(t, 110, ssn)

	// Current year forecast: damped to 70% and rounded half up.
	ssn, err = deck.LookupSSN(path, 2026, 7, now)
	require.NoError(t, err)
	assert.Equal(t, 77, ssn)

	_, err = deck.LookupSSN(path, 2026, 8, now)
	assert.Error(t, err)

	_, err = deck.LookupSSN(path, 2031, 1, now)
	assert.Error(t, err)
}

func TestRunnerValidateMissingBinary(t *testing.T) {
	r := &deck.Runner{Binary: "/no/such/voacapl", ITSHFBCDir: t.TempDir(), Timeout: time.Second}
	assert.Error(t, r.Validate())
}
