package archive

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/ironsheep/trailscan/internal/survey"
)

// CatalogCache provides thread-safe caching of parsed catalogs keyed by
// file path.
//
// Cached catalogs remain in memory until removed via Evict or Clear.
type CatalogCache struct {
	mu       sync.RWMutex
	catalogs map[string][]survey.CatalogSource
}

// NewCatalogCache creates an empty cache.
func NewCatalogCache() *CatalogCache {
	return &CatalogCache{
		catalogs: make(map[string][]survey.CatalogSource),
	}
}

// Load returns the cached catalog for path or reads it from disk.
func (c *CatalogCache) Load(path string) ([]survey.CatalogSource, error) {
	c.mu.RLock()
	if sources, ok := c.catalogs[path]; ok {
		c.mu.RUnlock()
		return sources, nil
	}
	c.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	sources, err := ReadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	c.mu.Lock()
	c.catalogs[path] = sources
	c.mu.Unlock()

	return sources, nil
}

// Evict removes path from the cache.
func (c *CatalogCache) Evict(path string) {
	c.mu.Lock()
	delete(c.catalogs, path)
	c.mu.Unlock()
}

// Clear removes every cached catalog.
func (c *CatalogCache) Clear() {
	c.mu.Lock()
	c.catalogs = make(map[string][]survey.CatalogSource)
	c.mu.Unlock()
}

// Len returns the number of cached catalogs.
func (c *CatalogCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.catalogs)
}

// ReadCatalog parses a headed CSV catalog.
//
// Recognized columns (case-insensitive, any order): x, y, nobserve,
// ndetect, psfmag_<band> and petro90_<band>. Other columns are ignored.
// x and y are required. A malformed row never fails the catalog: missing
// or unparseable magnitudes and positions become NaN and unparseable counts
// become -1, so masking can skip and report the entry.
func ReadCatalog(r io.Reader) ([]survey.CatalogSource, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("missing header")
	}
	if err != nil {
		return nil, err
	}
	cols, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	var sources []survey.CatalogSource
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		s := survey.CatalogSource{
			X:       parseFloat(field(rec, cols.x)),
			Y:       parseFloat(field(rec, cols.y)),
			PsfMag:  make(map[survey.Band]float64, len(cols.psfMag)),
			Petro90: make(map[survey.Band]float64, len(cols.petro90)),
		}
		if cols.nObserve >= 0 {
			s.NObserve = parseCount(field(rec, cols.nObserve))
		}
		if cols.nDetect >= 0 {
			s.NDetect = parseCount(field(rec, cols.nDetect))
		}
		for band, i := range cols.psfMag {
			s.PsfMag[band] = parseFloat(field(rec, i))
		}
		for band, i := range cols.petro90 {
			s.Petro90[band] = parseFloat(field(rec, i))
		}
		sources = append(sources, s)
	}
	return sources, nil
}

type columns struct {
	x, y              int
	nObserve, nDetect int
	psfMag, petro90   map[survey.Band]int
}

func parseHeader(header []string) (columns, error) {
	cols := columns{
		x: -1, y: -1, nObserve: -1, nDetect: -1,
		psfMag:  make(map[survey.Band]int),
		petro90: make(map[survey.Band]int),
	}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		switch {
		case name == "x":
			cols.x = i
		case name == "y":
			cols.y = i
		case name == "nobserve":
			cols.nObserve = i
		case name == "ndetect":
			cols.nDetect = i
		case strings.HasPrefix(name, "psfmag_"):
			if band, err := survey.ParseBand(strings.TrimPrefix(name, "psfmag_")); err == nil {
				cols.psfMag[band] = i
			}
		case strings.HasPrefix(name, "petro90_"):
			if band, err := survey.ParseBand(strings.TrimPrefix(name, "petro90_")); err == nil {
				cols.petro90[band] = i
			}
		}
	}
	if cols.x < 0 || cols.y < 0 {
		return cols, errors.New("header must name x and y columns")
	}
	return cols, nil
}

// field returns column i of rec, or "" when the row is too short.
func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return rec[i]
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func parseCount(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
