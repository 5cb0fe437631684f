package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*memDeduper)

// WithMaxSize bounds the number of tracked identities. Values <= 0 select
// unbounded mode (no eviction).
func WithMaxSize(maxSize int) Option {
	return func(d *memDeduper) {
		d.maxSize = maxSize
	}
}
