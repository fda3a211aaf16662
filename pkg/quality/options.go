package quality

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithMaxDimension downscales images whose longer side exceeds n pixels
// before scoring. Zero or negative disables downscaling.
func WithMaxDimension(n int) Option {
	return func(e *Evaluator) {
		if n < 0 {
			n = 0
		}
		e.maxDimension = n
	}
}

// WithCache enables score memoization keyed by the decoded image bytes.
func WithCache(c Cache) Option {
	return func(e *Evaluator) {
		e.cache = c
	}
}
