package brain

import (
	"context"
	"encoding/json"
	"fmt"

	"AIAvatar/internal/config"
	"AIAvatar/internal/embedding"
	"AIAvatar/internal/models"
	"AIAvatar/pkg/logger"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Reply is the structured answer the model is asked to produce.
type Reply struct {
	Response       string `json:"response"`
	PrimaryEmotion string `json:"primary_emotion"`
}

// Brain turns a viewer question into a persona reply with an emotion label.
// It checks the NG list first, grounds the prompt with retrieved answer
// examples and knowledge snippets, and asks Gemini for a JSON reply.
type Brain struct {
	log       *logger.Logger
	model     *genai.GenerativeModel
	client    *genai.Client
	ngList    *NGList
	qa        *Corpus
	knowledge *Corpus
}

// NewBrain wires the Gemini model and loads the NG list and both retrieval
// corpora from the configured paths.
func NewBrain(ctx context.Context, cfg config.LLMConfig, embedder embedding.Embedding, log *logger.Logger) (*Brain, error) {
	if cfg.Provider != "gemini" {
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	model := client.GenerativeModel(cfg.Model)
	model.GenerationConfig.ResponseMIMEType = "application/json"

	ngList, err := LoadNGList(cfg.NGWordPath, log)
	if err != nil {
		return nil, err
	}
	qa, err := LoadCorpus(ctx, cfg.QAPath, embedder, log)
	if err != nil {
		return nil, err
	}
	knowledge, err := LoadCorpus(ctx, cfg.KnowledgePath, embedder, log)
	if err != nil {
		return nil, err
	}

	return &Brain{
		log:       log,
		model:     model,
		client:    client,
		ngList:    ngList,
		qa:        qa,
		knowledge: knowledge,
	}, nil
}

// GenerateResponse produces the persona reply for a question. The returned
// text is always speakable: NG hits return the curated reply, and any model
// or parse failure falls back to the default refusal with the error attached
// so the caller can decide whether to cache.
func (b *Brain) GenerateResponse(ctx context.Context, question string) (string, string, error) {
	if blocked, reply := b.ngList.Check(question); blocked {
		b.log.WithPayload(map[string]any{"question": question}).Info("Question blocked by NG list")
		return reply, "Neutral", nil
	}

	qaExamples := b.qa.TopK(ctx, question, 5)
	knowledge := b.knowledge.TopK(ctx, question, 5)
	prompt := buildSystemPrompt(qaExamples, knowledge) + "\n" + question

	resp, err := b.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		b.log.WithError(models.ErrorInfo{Message: err.Error()}).Error("Gemini request failed")
		return DefaultNGMessage, "Neutral", fmt.Errorf("failed to generate response: %w", err)
	}

	raw := firstText(resp)
	if raw == "" {
		return DefaultNGMessage, "Neutral", fmt.Errorf("empty response from model")
	}

	var reply Reply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		b.log.WithError(models.ErrorInfo{Message: err.Error()}).
			WithPayload(map[string]any{"raw": raw}).
			Error("Failed to parse model reply as JSON")
		return DefaultNGMessage, "Neutral", fmt.Errorf("failed to parse model reply: %w", err)
	}
	if reply.Response == "" {
		reply.Response = DefaultNGMessage
	}
	if !validEmotions[reply.PrimaryEmotion] {
		reply.PrimaryEmotion = "Neutral"
	}

	return cleanReply(reply.Response), reply.PrimaryEmotion, nil
}

// FilterComments asks the model which chat comments are genuine questions or
// encouragement worth answering, returning them in their original order. On
// any failure it keeps just the first comment so a model outage never floods
// the queue.
func (b *Brain) FilterComments(ctx context.Context, comments []string) []string {
	if len(comments) == 0 {
		return nil
	}

	listing, err := json.Marshal(comments)
	if err != nil {
		return comments[:1]
	}
	prompt := fmt.Sprintf(`今から、与那国町議会議員のYouTube配信に送られてきたコメントを配列で送ります。
この内容を解析し、
カテゴリ1.候補者の政治活動や人となりに関しての質問・要望（かつ誹謗中傷を含まないもの）
カテゴリ2.候補者への純粋な応援や励まし、握手を求めるコメント
カテゴリ3.配信についての感想
カテゴリ4.その他のコメント
に分類してください。

そのうえで、カテゴリ1もしくはカテゴリ2に当てはまるもののindexを、以下のようなjson形式で返してください。

{
    "question_index": [1, 4, 5]
}

回答は絶対にJSONとしてパース可能なものにしてください。

解析したい質問の配列は以下です。
%s`, listing)

	resp, err := b.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		b.log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Comment filtering failed, keeping first comment")
		return comments[:1]
	}
	raw := firstText(resp)

	var parsed struct {
		QuestionIndex []int `json:"question_index"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		b.log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Comment filter reply unparseable, keeping first comment")
		return comments[:1]
	}

	var kept []string
	for _, i := range parsed.QuestionIndex {
		if i >= 0 && i < len(comments) {
			kept = append(kept, comments[i])
		}
	}
	return kept
}

// Close releases the underlying GenAI client.
func (b *Brain) Close() error {
	if b.client != nil {
		return b.client.Close()
	}
	return nil
}

// firstText extracts the first text part from a Gemini response.
func firstText(resp *genai.GenerateContentResponse) string {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				return string(text)
			}
		}
	}
	return ""
}
