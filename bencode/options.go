package bencode

import "go.uber.org/zap"

// DefaultMaxDepth bounds list and dictionary nesting unless WithMaxDepth says otherwise.
const DefaultMaxDepth = 512

type options struct {
	maxDepth         int
	text             bool
	rejectDuplicates bool
	strictOrder      bool
	log              *zap.SugaredLogger
}

// Option tunes a single Encode, Decode, Marshal or Unmarshal call. Options that do not apply to an operation are
// ignored by it.
type Option func(*options)

// WithMaxDepth sets the deepest list/dictionary nesting accepted before failing with ErrNestingTooDeep.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		o.maxDepth = n
	}
}

// WithText requires every dictionary key to be valid UTF-8. Keys that are not fail with ErrNonTextKey.
func WithText() Option {
	return func(o *options) {
		o.text = true
	}
}

// WithRejectDuplicates makes a repeated dictionary key fail with ErrDuplicateKey. Without it the last
// occurrence wins.
func WithRejectDuplicates() Option {
	return func(o *options) {
		o.rejectDuplicates = true
	}
}

// WithStrictOrder requires dictionary keys to appear in strictly ascending byte order, failing with
// ErrUnsortedKeys otherwise.
func WithStrictOrder() Option {
	return func(o *options) {
		o.strictOrder = true
	}
}

// WithCanonical accepts only input that is byte-for-byte the canonical encoding of its value.
func WithCanonical() Option {
	return func(o *options) {
		o.strictOrder = true
		o.rejectDuplicates = true
	}
}

// WithLogger traces rejected input at debug level.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *options) {
		o.log = l
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		maxDepth: DefaultMaxDepth,
		log:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = zap.NewNop().Sugar()
	}
	return o
}
