package boxtree

// DefaultMinNumber is the default leaf-size threshold.
const DefaultMinNumber = 10

type options struct {
	minNumber int
}

// Option configures tree construction.
type Option func(*options)

// WithMinNumber sets the leaf-size threshold: sets of more than n boxes are
// split further. Larger values build faster and query slower. Values below
// one are treated as one.
func WithMinNumber(n int) Option {
	return func(o *options) {
		o.minNumber = max(n, 1)
	}
}

func buildOptions(opts []Option) options {
	o := options{minNumber: DefaultMinNumber}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}
