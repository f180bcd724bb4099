package cli

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/ironsheep/trailscan/internal/survey"
)

// parseFields expands a field list such as "100-120,130" into sorted,
// distinct field numbers.
func parseFields(spec string) ([]int, error) {
	var fields []int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil || first < 0 {
			return nil, fmt.Errorf("invalid field %q", part)
		}
		last := first
		if isRange {
			last, err = strconv.Atoi(strings.TrimSpace(hi))
			if err != nil || last < first {
				return nil, fmt.Errorf("invalid field range %q", part)
			}
		}
		for f := first; f <= last; f++ {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields in %q", spec)
	}
	slices.Sort(fields)
	return slices.Compact(fields), nil
}

// parseFilters validates filter names, keeping survey order.
func parseFilters(names []string) ([]survey.Band, error) {
	if len(names) == 0 {
		return survey.Bands, nil
	}
	seen := make(map[survey.Band]bool)
	for _, name := range names {
		b, err := survey.ParseBand(name)
		if err != nil {
			return nil, err
		}
		seen[b] = true
	}
	var bands []survey.Band
	for _, b := range survey.Bands {
		if seen[b] {
			bands = append(bands, b)
		}
	}
	return bands, nil
}

// frameList orders frames so all filters of a field are adjacent.
func frameList(run int, camcols, fields []int, bands []survey.Band) []survey.FrameID {
	frames := make([]survey.FrameID, 0, len(camcols)*len(fields)*len(bands))
	for _, camcol := range camcols {
		for _, field := range fields {
			for _, band := range bands {
				frames = append(frames, survey.FrameID{Run: run, Camcol: camcol, Filter: band, Field: field})
			}
		}
	}
	return frames
}
