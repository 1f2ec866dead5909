package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jo-hoe/leafcollector/internal/crop"
)

// parseFloats parses a comma separated list of exactly n numbers
func parseFloats(value string, n int) ([]float64, error) {
	parts := strings.Split(value, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma separated numbers, got %q", n, value)
	}
	numbers := make([]float64, n)
	for i, part := range parts {
		number, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", part, err)
		}
		if math.IsNaN(number) || math.IsInf(number, 0) {
			return nil, fmt.Errorf("number %q is not finite", part)
		}
		numbers[i] = number
	}
	return numbers, nil
}

// parseSelection reads "x,y,width,height" and an optional "width,height" displayed size.
// Without a displayed size the rectangle is taken in natural pixels.
func parseSelection(rect, displayed string, natural crop.Size) (crop.Selection, error) {
	r, err := parseFloats(rect, 4)
	if err != nil {
		return crop.Selection{}, fmt.Errorf("--rect: %w", err)
	}
	selection := crop.Selection{
		Rect:      crop.Rect{X: r[0], Y: r[1], Width: r[2], Height: r[3]},
		Displayed: natural,
	}
	if displayed != "" {
		d, err := parseFloats(displayed, 2)
		if err != nil {
			return crop.Selection{}, fmt.Errorf("--displayed: %w", err)
		}
		selection.Displayed = crop.Size{Width: d[0], Height: d[1]}
	}
	return selection, selection.Validate()
}
