package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event type constants for published extraction events.
const (
	EventTypeArticleExtracted = "article.extracted"
	EventTypeArticleFailed    = "article.failed"
	EventTypeFetchCompleted   = "fetch.completed"
)

// ExtractionEvent is the envelope published to Kafka for every article
// that passes through the extraction pipeline.
type ExtractionEvent struct {
	EventID      string          `json:"event_id"`
	EventVersion int             `json:"event_version"`
	EventType    string          `json:"event_type"`
	ArticleID    string          `json:"article_id"`
	Schema       Schema          `json:"schema"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// NewExtractionEvent creates an extraction event with a fresh ID. The
// payload is JSON-serialized automatically.
func NewExtractionEvent(eventType, articleID string, schema Schema, payload any) (*ExtractionEvent, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return &ExtractionEvent{
		EventID:      uuid.New().String(),
		EventVersion: 1,
		EventType:    eventType,
		ArticleID:    articleID,
		Schema:       schema,
		Payload:      raw,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// ArticleExtractedPayload is the payload for article.extracted events.
type ArticleExtractedPayload struct {
	ArticleID       string   `json:"article_id"`
	Schema          Schema   `json:"schema"`
	Title           string   `json:"title,omitempty"`
	Journal         string   `json:"journal,omitempty"`
	PublicationDate string   `json:"publication_date,omitempty"`
	DOI             string   `json:"doi,omitempty"`
	Keywords        []string `json:"keywords,omitempty"`
}

// ArticleFailedPayload is the payload for article.failed events.
type ArticleFailedPayload struct {
	ArticleID string `json:"article_id,omitempty"`
	Schema    Schema `json:"schema"`
	Error     string `json:"error"`
}

// FetchCompletedPayload is the payload for fetch.completed events.
type FetchCompletedPayload struct {
	Query     string        `json:"query"`
	Schema    Schema        `json:"schema"`
	Requested int           `json:"requested"`
	Extracted int           `json:"extracted"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration_ns"`
}
