// Package worker runs the answer pipeline off the request path. Each viewer
// session gets one Worker: the frontend submits a question, polls without
// blocking, and the worker publishes the finished answer when the cycle
// completes.
package worker

import (
	"context"
	"sync"

	"AIAvatar/internal/cache"
	"AIAvatar/internal/models"
	"AIAvatar/pkg/logger"

	"github.com/google/uuid"
)

// Responder produces the persona reply and its emotion for a question. The
// reply must always be speakable, even when err is non-nil.
type Responder interface {
	GenerateResponse(ctx context.Context, question string) (string, string, error)
}

// Synthesizer matches tts.Synthesizer without importing it, so tests can
// substitute fakes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// AudioStore matches audiostore.Store.
type AudioStore interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
}

// HistoryRecorder matches history.History.
type HistoryRecorder interface {
	Add(ctx context.Context, entry models.HistoryEntry) error
}

// Deps are the collaborators a Worker drives for one answer cycle.
type Deps struct {
	Log     *logger.Logger
	Cache   *cache.Service
	Brain   Responder
	TTS     Synthesizer
	Audio   AudioStore
	History HistoryRecorder
}

// Worker owns one session's answer pipeline. At most one cycle is in flight;
// one more question may wait in the pending slot, where a newer submission
// replaces an older one that has not started yet.
type Worker struct {
	deps Deps
	ctx  context.Context // service lifetime, not session lifetime
	sem  chan struct{}   // shared generation cap across all sessions

	mu       sync.Mutex
	inFlight bool
	pending  *models.ChatItem
	result   *models.AnswerResult
}

func newWorker(ctx context.Context, deps Deps, sem chan struct{}) *Worker {
	return &Worker{deps: deps, ctx: ctx, sem: sem}
}

// Submit hands a question to the worker. If a cycle is already running the
// item parks in the pending slot, displacing any earlier unstarted question.
func (w *Worker) Submit(item models.ChatItem) {
	w.mu.Lock()
	if w.inFlight {
		if w.pending != nil {
			w.deps.Log.WithPayload(map[string]any{"displaced": w.pending.MessageText}).
				Debug("Pending question replaced by a newer one")
		}
		w.pending = &item
		w.mu.Unlock()
		return
	}
	w.inFlight = true
	w.mu.Unlock()

	go w.runCycle(item)
}

// Poll returns the finished answer if one is ready, without blocking. The
// result is consumed: a second Poll returns nothing until the next cycle
// completes.
func (w *Worker) Poll() (*models.AnswerResult, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.result == nil {
		return nil, false
	}
	res := w.result
	w.result = nil
	return res, true
}

// Busy reports whether a cycle is running or queued.
func (w *Worker) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inFlight || w.pending != nil
}

func (w *Worker) runCycle(item models.ChatItem) {
	w.sem <- struct{}{}
	res := w.process(w.ctx, item)
	<-w.sem

	w.mu.Lock()
	w.result = res
	next := w.pending
	w.pending = nil
	if next != nil {
		go w.runCycle(*next)
	} else {
		w.inFlight = false
	}
	w.mu.Unlock()
}

// process runs one full answer cycle: cache lookup, then on miss generation,
// synthesis, audio persistence and cache write. The answer is always
// delivered; cache and history failures only cost future instant answers.
func (w *Worker) process(ctx context.Context, item models.ChatItem) *models.AnswerResult {
	log := w.deps.Log
	question := item.MessageText

	res := &models.AnswerResult{Question: question, Author: item.AuthorName}
	if item.Source == "system" {
		res.Question = "(起動挨拶)"
	}

	if !item.IsInitialGreeting {
		lookup, err := w.deps.Cache.Lookup(ctx, question)
		if err != nil {
			log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Cache lookup degraded to a miss")
		}
		if lookup.Hit {
			res.ResponseText = lookup.Record.ResponseText
			res.Emotion = lookup.Record.Emotion
			res.AudioRef = lookup.Record.AudioRef
			res.CacheHit = true
			res.Similarity = lookup.Similarity
			log.WithPayload(map[string]any{"question": question, "similarity": lookup.Similarity}).
				Info("Instant answer served from cache")
			w.record(ctx, item, res)
			return res
		}
	}

	reply, emotion, genErr := w.deps.Brain.GenerateResponse(ctx, question)
	res.ResponseText = reply
	res.Emotion = emotion
	if genErr != nil {
		log.WithError(models.ErrorInfo{Message: genErr.Error()}).Error("Generation failed, delivering fallback reply")
	}

	var synthErr error
	if w.deps.TTS != nil {
		audio, err := w.deps.TTS.Synthesize(ctx, reply)
		if err != nil {
			synthErr = err
			log.WithError(models.ErrorInfo{Message: err.Error()}).Error("Speech synthesis failed, answering without audio")
		} else {
			name := uuid.NewString() + ".mp3"
			ref, err := w.deps.Audio.Put(ctx, name, audio)
			if err != nil {
				synthErr = err
				log.WithError(models.ErrorInfo{Message: err.Error()}).Error("Audio persistence failed, answering without audio")
			} else {
				res.AudioRef = ref
			}
		}
	}

	// A record is written only after a fully successful cycle, and never for
	// the scripted greeting.
	if genErr == nil && synthErr == nil && !item.IsInitialGreeting && item.Source != "system" {
		if _, err := w.deps.Cache.Store(ctx, question, reply, emotion, res.AudioRef); err != nil {
			log.WithError(models.ErrorInfo{Message: err.Error()}).
				Warn("Cache write failed, answer delivered uncached")
		}
	}

	w.record(ctx, item, res)
	return res
}

func (w *Worker) record(ctx context.Context, item models.ChatItem, res *models.AnswerResult) {
	if w.deps.History == nil || item.Source == "system" {
		return
	}
	entry := models.HistoryEntry{
		Question: res.Question,
		Author:   res.Author,
		Response: res.ResponseText,
		Emotion:  res.Emotion,
	}
	if err := w.deps.History.Add(ctx, entry); err != nil {
		w.deps.Log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Failed to record history entry")
	}
}
