package voacap

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// VG output files share the stem of the base .voa deck with a numeric
// suffix .vg<N> (N = 1..12) selecting the hourly/monthly variant.
var reVGNum = regexp.MustCompile(`(?i)\.vg(\d{1,2})(\.gz)?$`)

// MaxSelector is the highest variant number voacapl emits per deck.
const MaxSelector = 12

// VGFile is one prediction variant file.
type VGFile struct {
	Path     string
	Selector int
}

// Selector extracts the variant number from a .vg<N> path, or 0 when
// the path does not carry one.
func Selector(path string) int {
	m := reVGNum.FindStringSubmatch(path)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > MaxSelector {
		return 0
	}
	return n
}

// DiscoverVG walks root and returns every .vg<N> file found, ordered by
// path then selector.
func DiscoverVG(root string) ([]VGFile, error) {
	var files []VGFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if n := Selector(path); n > 0 {
			files = append(files, VGFile{Path: path, Selector: n})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].Path != files[j].Path {
			return files[i].Path < files[j].Path
		}
		return files[i].Selector < files[j].Selector
	})
	return files, nil
}

// SiblingVG returns the .vg<N> files that belong to the given .voa
// deck, ordered by selector.
func SiblingVG(voaPath string) ([]VGFile, error) {
	stem := strings.TrimSuffix(voaPath, filepath.Ext(voaPath))
	matches, err := filepath.Glob(stem + ".vg*")
	if err != nil {
		return nil, err
	}
	var files []VGFile
	for _, m := range matches {
		if n := Selector(m); n > 0 {
			files = append(files, VGFile{Path: m, Selector: n})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Selector < files[j].Selector })
	return files, nil
}
