package resample

import "math"

type candidate struct {
	w, h  int
	score float64
}

func (c candidate) area() int {
	return c.w * c.h
}

// Smaller aspect error wins, then the bigger texture, then the wider one
func (c candidate) better(o candidate) bool {
	switch {
	case c.score != o.score:
		return c.score < o.score
	case c.area() != o.area():
		return c.area() > o.area()
	default:
		return c.w > o.w
	}
}

// Round down to a multiple of Align, never below Align
func floorAlign(n int) int {
	return max(n/Align*Align, Align)
}

func search(ratio float64, maxW, maxH, budget, minArea int) (best candidate, ok bool) {
	for w := Align; w <= maxW; w += Align {
		for h := Align; h <= maxH && w*h <= budget; h += Align {
			if w*h < minArea {
				continue
			}
			c := candidate{w, h, math.Abs(math.Log(float64(w)/float64(h)) - ratio)}
			if !ok || c.better(best) {
				best, ok = c, true
			}
		}
	}
	return
}

// Fit returns the size a width by height texture should be resampled to so
// that it fits budget.
//
// Sides are only ever rounded down, so a texture is never enlarged except
// for sides shorter than Align. If rounding each side down already fits, that
// size is used, so an aligned texture within the budget keeps its size.
// Otherwise every aligned size no bigger than the source is considered and the
// one closest to the source aspect ratio is chosen, preferring sizes that use
// at least three quarters of the budget.
func Fit(width, height, budget int) (int, int, error) {
	if width <= 0 || height <= 0 || budget < Align*Align {
		return 0, 0, ErrInvalidDimensions
	}

	if w, h := floorAlign(width), floorAlign(height); w <= MaxDimension && h <= MaxDimension && w*h <= budget {
		return w, h, nil
	}

	ratio := math.Log(float64(width) / float64(height))
	maxW := min(floorAlign(width), MaxDimension)
	maxH := min(floorAlign(height), MaxDimension)

	best, ok := search(ratio, maxW, maxH, budget, budget*3/4)
	if !ok {
		best, ok = search(ratio, maxW, maxH, budget, 0)
	}
	if !ok {
		return 0, 0, ErrInvalidDimensions
	}

	return best.w, best.h, nil
}
