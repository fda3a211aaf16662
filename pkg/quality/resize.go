package quality

import "math"

// fitWithin returns the size of a w x h image scaled down to fit a
// limit x limit box with its aspect ratio kept. ok is false when no scaling
// is needed.
func fitWithin(w, h, limit int) (width, height int, ok bool) {
	if limit <= 0 || (w <= limit && h <= limit) {
		return w, h, false
	}

	scale := float64(limit) / float64(max(w, h))
	width = max(1, int(math.Round(float64(w)*scale)))
	height = max(1, int(math.Round(float64(h)*scale)))
	return width, height, true
}
