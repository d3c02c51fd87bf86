// faq_builder pre-generates the instant-answer cache before a stream:
// it answers a curated question list offline, synthesizes the audio, and
// writes everything through the same cache service the live service uses.
// It can also verify an existing cache file.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"AIAvatar/internal/audiostore"
	"AIAvatar/internal/brain"
	"AIAvatar/internal/cache"
	"AIAvatar/internal/config"
	"AIAvatar/internal/embedding"
	"AIAvatar/internal/tts"
	"AIAvatar/pkg/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: faq_builder <generate|verify> [flags]")
		os.Exit(2)
	}

	switch os.Args[1] {
	case "generate":
		runGenerate(os.Args[2:])
	case "verify":
		runVerify(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		os.Exit(2)
	}
}

func runGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := fs.String("config", "config/config.yaml", "path to the service configuration")
	questionsPath := fs.String("questions", "", "JSON array of questions to pre-answer")
	withAudio := fs.Bool("audio", true, "synthesize and store audio for each answer")
	fs.Parse(args)

	if *questionsPath == "" {
		log.Fatal("generate requires -questions")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(logrus.InfoLevel)
	appLogger := logger.New("FAQBuilder")

	data, err := os.ReadFile(*questionsPath)
	if err != nil {
		log.Fatalf("Failed to read questions file: %v", err)
	}
	var questions []string
	if err := json.Unmarshal(data, &questions); err != nil {
		log.Fatalf("Failed to parse questions file: %v", err)
	}

	ctx := context.Background()

	embedder, err := embedding.NewModel(cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to create embedding model: %v", err)
	}
	store := cache.NewAnswerStore(cfg.Cache.StorePath, logger.New("AnswerStore"))
	cacheSvc, err := cache.NewService(ctx, embedder, cache.NewMemoryIndex(), store, cfg.Cache.Threshold, logger.New("Cache"))
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}
	avatarBrain, err := brain.NewBrain(ctx, cfg.LLM, embedder, logger.New("Brain"))
	if err != nil {
		log.Fatalf("Failed to create brain: %v", err)
	}
	defer avatarBrain.Close()

	var synthesizer tts.Synthesizer
	var audioStore audiostore.Store
	if *withAudio {
		if synthesizer, err = tts.NewGoogleSynthesizer(ctx, cfg.TTS, logger.New("TTS")); err != nil {
			log.Fatalf("Failed to create TTS client: %v", err)
		}
		if audioStore, err = audiostore.New(ctx, cfg, logger.New("AudioStore")); err != nil {
			log.Fatalf("Failed to create audio store: %v", err)
		}
	}

	generated, skipped := 0, 0
	for _, question := range questions {
		// Already-covered questions are skipped so reruns are cheap.
		lookup, err := cacheSvc.Lookup(ctx, question)
		if err == nil && lookup.Hit {
			skipped++
			continue
		}

		reply, emotion, err := avatarBrain.GenerateResponse(ctx, question)
		if err != nil {
			appLogger.WithPayload(map[string]any{"question": question, "error": err.Error()}).
				Warn("Generation failed, question skipped")
			continue
		}

		audioRef := ""
		if *withAudio {
			audio, err := synthesizer.Synthesize(ctx, reply)
			if err != nil {
				appLogger.WithPayload(map[string]any{"question": question, "error": err.Error()}).
					Warn("Synthesis failed, question skipped")
				continue
			}
			if audioRef, err = audioStore.Put(ctx, uuid.NewString()+".mp3", audio); err != nil {
				appLogger.WithPayload(map[string]any{"question": question, "error": err.Error()}).
					Warn("Audio persistence failed, question skipped")
				continue
			}
		}

		if _, err := cacheSvc.Store(ctx, question, reply, emotion, audioRef); err != nil {
			log.Fatalf("Failed to store answer: %v", err)
		}
		generated++
		appLogger.WithPayload(map[string]any{"question": question}).Info("Answer pre-generated")
	}

	appLogger.WithPayload(map[string]any{"generated": generated, "skipped": skipped, "total": cacheSvc.Size()}).
		Info("FAQ cache build complete")
}

func runVerify(args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	configPath := fs.String("config", "config/config.yaml", "path to the service configuration")
	fs.Parse(args)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	path := cfg.Cache.StorePath
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("FAIL: cannot read %s: %v", path, err)
	}

	// Editors on Windows like to sneak a BOM in front of hand-curated files,
	// which breaks strict JSON parsers downstream.
	boms := map[string][]byte{
		"UTF-8":     {0xEF, 0xBB, 0xBF},
		"UTF-16 LE": {0xFF, 0xFE},
		"UTF-16 BE": {0xFE, 0xFF},
	}
	for name, bom := range boms {
		if bytes.HasPrefix(data, bom) {
			log.Fatalf("FAIL: %s starts with a %s BOM", path, name)
		}
	}
	fmt.Printf("PASS: %s BOM check\n", path)

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Fatalf("FAIL: %s JSON integrity: %v", path, err)
	}
	fmt.Printf("PASS: %s JSON integrity, %d entries\n", path, len(entries))

	// Count how many entries the service would actually load.
	logger.Init(logrus.WarnLevel)
	store := cache.NewAnswerStore(path, logger.New("Verify"))
	if err := store.Load(); err != nil {
		log.Fatalf("FAIL: store load: %v", err)
	}
	readable := store.Len()
	if readable != len(entries) {
		fmt.Printf("WARN: %d of %d entries are readable\n", readable, len(entries))
		os.Exit(1)
	}
	fmt.Printf("PASS: all %d entries readable\n", readable)
}
