package embedsync

import "time"

type Option func(o *Options)

type Options struct {
	Interval     time.Duration
	Settle       time.Duration
	ChunkWords   int
	OverlapWords int
	BatchLimit   int
}

// WithInterval sets the delay between background runs.
func WithInterval(d time.Duration) Option {
	return func(o *Options) {
		o.Interval = d
	}
}

// WithSettle sets how old a pending message must be before it is
// embedded. Fresh messages are left alone so an active conversation is
// chunked whole rather than mid-exchange.
func WithSettle(d time.Duration) Option {
	return func(o *Options) {
		o.Settle = d
	}
}

// WithChunkWords sets the approximate word count per chunk.
func WithChunkWords(n int) Option {
	return func(o *Options) {
		o.ChunkWords = n
	}
}

// WithOverlapWords sets how many words consecutive chunks share.
func WithOverlapWords(n int) Option {
	return func(o *Options) {
		o.OverlapWords = n
	}
}

// WithBatchLimit caps how many pending messages a single run picks up.
func WithBatchLimit(n int) Option {
	return func(o *Options) {
		o.BatchLimit = n
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Interval:     5 * time.Minute,
		Settle:       time.Hour,
		ChunkWords:   300,
		OverlapWords: 50,
		BatchLimit:   1000,
	}

	for _, fn := range opts {
		fn(&options)
	}

	return options
}
