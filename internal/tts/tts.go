// Package tts synthesizes the avatar's spoken replies as MP3 audio.
package tts

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"AIAvatar/internal/config"
	"AIAvatar/pkg/logger"

	texttospeech "google.golang.org/api/texttospeech/v1"
	"google.golang.org/api/option"
)

// Synthesizer turns reply text into playable audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// nameReadings maps proper nouns to kana so the voice reads them correctly.
var nameReadings = []struct{ kanji, reading string }{
	{"阪口源太", "さかぐちげんた"},
	{"坂口源太", "さかぐちげんた"},
	{"阪口", "さかぐち"},
	{"坂口", "さかぐち"},
	{"源太", "げんた"},
	{"安野", "あんの"},
	{"AI町政報告会", "AIちょうせいほうこくかい"},
	{"町政報告会", "ちょうせいほうこくかい"},
}

// GoogleSynthesizer is a Synthesizer backed by Google Cloud Text-to-Speech.
type GoogleSynthesizer struct {
	log     *logger.Logger
	service *texttospeech.Service
	cfg     config.TTSConfig
}

// NewGoogleSynthesizer creates the TTS client. With an empty API key the
// client falls back to application default credentials.
func NewGoogleSynthesizer(ctx context.Context, cfg config.TTSConfig, log *logger.Logger) (*GoogleSynthesizer, error) {
	var opts []option.ClientOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	service, err := texttospeech.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create TTS service: %w", err)
	}
	return &GoogleSynthesizer{log: log, service: service, cfg: cfg}, nil
}

// Synthesize generates MP3 audio for text, applying the proper-noun reading
// substitutions first.
func (g *GoogleSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	spoken := applyReadings(text)

	req := &texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: spoken},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: g.cfg.LanguageCode,
			Name:         g.cfg.VoiceName,
		},
		AudioConfig: &texttospeech.AudioConfig{
			AudioEncoding: "MP3",
			SpeakingRate:  g.cfg.SpeakingRate,
		},
	}

	resp, err := g.service.Text.Synthesize(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech: %w", err)
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio content: %w", err)
	}
	if len(audio) < 100 {
		return nil, fmt.Errorf("synthesized audio suspiciously small (%d bytes)", len(audio))
	}

	g.log.WithPayload(map[string]any{"chars": len(spoken), "bytes": len(audio)}).Debug("Speech synthesized")
	return audio, nil
}

// applyReadings replaces proper nouns with their kana readings. Longer keys
// are listed first so compound names win over their parts.
func applyReadings(text string) string {
	for _, r := range nameReadings {
		text = strings.ReplaceAll(text, r.kanji, r.reading)
	}
	return text
}

var _ Synthesizer = (*GoogleSynthesizer)(nil)
