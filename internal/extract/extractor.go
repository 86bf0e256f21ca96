package extract

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/helixir/article-extraction-service/internal/observability"
)

// Extractor builds normalized article records from parsed XML. It is
// stateless apart from its logger and metrics and safe for concurrent
// use.
type Extractor struct {
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewExtractor creates an Extractor. metrics may be nil, in which case
// no metrics are recorded.
func NewExtractor(logger zerolog.Logger, metrics *observability.Metrics) *Extractor {
	return &Extractor{
		logger:  observability.WithComponent(logger, "extractor"),
		metrics: metrics,
	}
}

// PrimaryID reduces a join-all identifier field to its first entry.
// Identifier selectors can match IDs in an article's reference list as
// well as its own, so the field may hold several newline-separated
// values; the article's own ID comes first in document order.
func PrimaryID(id string) string {
	if i := strings.IndexByte(id, '\n'); i >= 0 {
		return id[:i]
	}
	return id
}
