package assembler

type Option func(*Options)

type Options struct {
	// BudgetChars bounds the total size of assembled fragment text.
	BudgetChars int
	// HistoryLimit is the default last-k turns when a request does not
	// say otherwise.
	HistoryLimit int
	// MaxResults is the default semantic candidate count.
	MaxResults int
}

func WithBudgetChars(n int) Option {
	return func(o *Options) {
		o.BudgetChars = n
	}
}

func WithHistoryLimit(n int) Option {
	return func(o *Options) {
		o.HistoryLimit = n
	}
}

func WithMaxResults(n int) Option {
	return func(o *Options) {
		o.MaxResults = n
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		BudgetChars:  6000,
		HistoryLimit: 10,
		MaxResults:   5,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
