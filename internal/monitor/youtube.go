// Package monitor polls a YouTube live chat and feeds viewer comments into
// the answer pipeline.
package monitor

import (
	"context"
	"fmt"
	"time"

	"AIAvatar/internal/config"
	"AIAvatar/internal/models"
	"AIAvatar/pkg/logger"

	"google.golang.org/api/option"
	youtube "google.golang.org/api/youtube/v3"
)

// commentThrottle is the minimum spacing between answered comments, so the
// avatar finishes speaking before the next question starts.
const commentThrottle = 10 * time.Second

// reconnectDelay is how long to wait after the stream drops or errors.
const reconnectDelay = 30 * time.Second

// CommentFilter keeps only comments worth answering. The brain's classifier
// implements it.
type CommentFilter interface {
	FilterComments(ctx context.Context, comments []string) []string
}

// Sink receives the chat items that survive filtering.
type Sink func(item models.ChatItem)

// Monitor polls the live chat attached to a video and pushes filtered
// comments to the sink, one per throttle window.
type Monitor struct {
	log     *logger.Logger
	cfg     config.YouTubeConfig
	service *youtube.Service
	filter  CommentFilter
	sink    Sink

	pollInterval time.Duration
}

// New creates the monitor. The poll interval is a floor; YouTube's own
// suggested polling interval is honored when it is longer.
func New(ctx context.Context, cfg config.YouTubeConfig, filter CommentFilter, sink Sink, log *logger.Logger) (*Monitor, error) {
	service, err := youtube.NewService(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube client: %w", err)
	}

	pollInterval := 5 * time.Second
	if cfg.PollInterval != "" {
		d, err := time.ParseDuration(cfg.PollInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid poll interval '%s': %w", cfg.PollInterval, err)
		}
		pollInterval = d
	}

	return &Monitor{
		log:          log,
		cfg:          cfg,
		service:      service,
		filter:       filter,
		sink:         sink,
		pollInterval: pollInterval,
	}, nil
}

// Run polls until ctx is cancelled, reconnecting whenever the stream or the
// API drops.
func (m *Monitor) Run(ctx context.Context) {
	m.log.WithPayload(map[string]any{"videoID": m.cfg.VideoID}).Info("YouTube chat monitor started")

	for {
		chatID, err := m.liveChatID(ctx)
		if err != nil {
			m.log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Live chat not available, retrying")
			if !sleepCtx(ctx, reconnectDelay) {
				return
			}
			continue
		}

		if err := m.pollChat(ctx, chatID); err != nil {
			if ctx.Err() != nil {
				return
			}
			m.log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Chat polling ended, reconnecting")
		}
		if !sleepCtx(ctx, reconnectDelay) {
			return
		}
	}
}

// liveChatID resolves the active live chat attached to the configured video.
func (m *Monitor) liveChatID(ctx context.Context) (string, error) {
	resp, err := m.service.Videos.List([]string{"liveStreamingDetails"}).Id(m.cfg.VideoID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to look up video '%s': %w", m.cfg.VideoID, err)
	}
	if len(resp.Items) == 0 || resp.Items[0].LiveStreamingDetails == nil {
		return "", fmt.Errorf("video '%s' has no live stream", m.cfg.VideoID)
	}
	chatID := resp.Items[0].LiveStreamingDetails.ActiveLiveChatId
	if chatID == "" {
		return "", fmt.Errorf("video '%s' has no active live chat", m.cfg.VideoID)
	}
	return chatID, nil
}

// pollChat reads message pages until the chat ends or ctx is cancelled. At
// most one comment per throttle window reaches the sink.
func (m *Monitor) pollChat(ctx context.Context, chatID string) error {
	m.log.Info("Connected to live chat")

	var pageToken string
	var lastForwarded time.Time

	for {
		call := m.service.LiveChatMessages.List(chatID, []string{"snippet", "authorDetails"}).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return fmt.Errorf("failed to fetch chat messages: %w", err)
		}
		pageToken = resp.NextPageToken

		if len(resp.Items) > 0 && time.Since(lastForwarded) >= commentThrottle {
			if m.forward(ctx, resp.Items) {
				lastForwarded = time.Now()
			}
		}

		wait := m.pollInterval
		if suggested := time.Duration(resp.PollingIntervalMillis) * time.Millisecond; suggested > wait {
			wait = suggested
		}
		if !sleepCtx(ctx, wait) {
			return ctx.Err()
		}
	}
}

// forward filters the page of messages and submits the first survivor.
func (m *Monitor) forward(ctx context.Context, items []*youtube.LiveChatMessage) bool {
	texts := make([]string, 0, len(items))
	for _, item := range items {
		if item.Snippet != nil && item.Snippet.DisplayMessage != "" {
			texts = append(texts, item.Snippet.DisplayMessage)
		}
	}
	if len(texts) == 0 {
		return false
	}

	kept := texts
	if m.filter != nil {
		kept = m.filter.FilterComments(ctx, texts)
	}
	keep := make(map[string]bool, len(kept))
	for _, text := range kept {
		keep[text] = true
	}

	for _, item := range items {
		if item.Snippet == nil || !keep[item.Snippet.DisplayMessage] {
			continue
		}
		author := ""
		if item.AuthorDetails != nil {
			author = item.AuthorDetails.DisplayName
		}
		m.log.WithPayload(map[string]any{"author": author}).Info("Forwarding chat comment")
		m.sink(models.ChatItem{
			MessageText: item.Snippet.DisplayMessage,
			AuthorName:  author,
			Source:      "youtube",
		})
		return true
	}
	return false
}

// sleepCtx waits for d, returning false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
