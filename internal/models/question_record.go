package models

import "time"

// QuestionRecord is one finalized question/answer pair in the instant-answer
// cache. A record is only ever created after a full generation + synthesis
// cycle completed; it is immutable once written. A corrected answer is a new
// record for the same question, and lookups prefer the newer one.
type QuestionRecord struct {
	ID             string    `json:"id"`
	Question       string    `json:"question"`
	NormalizedText string    `json:"normalized_text"`
	Embedding      []float32 `json:"embedding"`
	ResponseText   string    `json:"response_text"`
	Emotion        string    `json:"emotion"`
	// AudioRef is a local file path or an object-store key, never the audio
	// payload itself.
	AudioRef  string    `json:"audio_ref"`
	CreatedAt time.Time `json:"created_at"`
}

// LookupResult is the outcome of a semantic cache lookup. Record is nil when
// Hit is false.
type LookupResult struct {
	Hit        bool
	Record     *QuestionRecord
	Similarity float64
}
