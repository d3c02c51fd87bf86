package models

// ChatItem is a single incoming question for the avatar, either typed on the
// page, pulled from the YouTube live chat, or injected by the system (the
// startup greeting).
type ChatItem struct {
	MessageText       string `json:"message_text"`
	AuthorName        string `json:"author_name"`
	Source            string `json:"source"` // "direct", "youtube" or "system"
	IsInitialGreeting bool   `json:"is_initial_greeting,omitempty"`
}

// AnswerResult is what the worker publishes once a question has been handled.
type AnswerResult struct {
	Question     string  `json:"question"`
	Author       string  `json:"author"`
	ResponseText string  `json:"response_text"`
	Emotion      string  `json:"emotion"`
	AudioRef     string  `json:"audio_ref"`
	CacheHit     bool    `json:"cache_hit"`
	Similarity   float64 `json:"similarity,omitempty"`
}

// HistoryEntry is one line of the bounded response history shown on the page.
type HistoryEntry struct {
	Question string `json:"question"`
	Author   string `json:"author"`
	Response string `json:"response"`
	Emotion  string `json:"emotion"`
}
