package progressio

import (
	"log/slog"

	"github.com/meigma/progressio/internal/lines"
)

// DefaultSeparator is the line separator used when no WithSeparator option
// is given.
const DefaultSeparator = "\n"

// Option configures a Reader.
type Option func(*readerConfig)

// LineOption configures a line-reading operation.
type LineOption func(*lineConfig)

// readerConfig holds construction-time settings.
type readerConfig struct {
	total    int64
	totalSet bool
	logger   *slog.Logger
}

// lineConfig holds settings for a single line-reading call.
type lineConfig struct {
	sep   string
	limit int
}

// WithTotal sets the total size reported to callbacks instead of asking the
// stream. A negative total is reported as UnknownTotal.
func WithTotal(total int64) Option {
	return func(c *readerConfig) {
		if total < 0 {
			total = UnknownTotal
		}
		c.total = total
		c.totalSet = true
	}
}

// WithoutTotal disables total-size capture; callbacks always see
// UnknownTotal.
func WithoutTotal() Option {
	return WithTotal(UnknownTotal)
}

// WithLogger sets a logger for the reader. By default, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *readerConfig) {
		c.logger = logger
	}
}

// WithSeparator sets the line separator. An empty separator treats the rest
// of the stream as a single line.
func WithSeparator(sep string) LineOption {
	return func(c *lineConfig) {
		c.sep = sep
	}
}

// WithLimit caps the number of bytes returned per line. A negative limit
// means no limit. A zero limit makes Gets and ReadLine return "" without
// reading and makes iteration fail with ErrInvalidLimit.
func WithLimit(n int) LineOption {
	return func(c *lineConfig) {
		c.limit = n
	}
}

func newLineConfig(opts []LineOption) lineConfig {
	cfg := lineConfig{
		sep:   DefaultSeparator,
		limit: lines.NoLimit,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
