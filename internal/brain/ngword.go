package brain

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"AIAvatar/pkg/logger"
)

// DefaultNGMessage is the canned refusal used when a blocked word has no
// dedicated reply, and as the safe fallback whenever generation fails.
const DefaultNGMessage = "その質問には答えられません。私はまだ学習中であるため、答えられないこともあります。申し訳ありません。"

// ngAllowlist contains harmless compounds that embed a blocked word. They are
// checked before the NG list so e.g. 核家族 is not rejected for containing 核.
var ngAllowlist = []string{"核家族", "中核", "核心"}

type ngEntry struct {
	word  string
	reply string
}

// NGList matches incoming questions against an operator-curated CSV of
// blocked words, each with an optional dedicated reply.
type NGList struct {
	log     *logger.Logger
	entries []ngEntry
}

// LoadNGList reads the CSV at path. The first column is the blocked word and
// the second its reply; a header row named "ng" is skipped. A missing file
// yields an empty list that blocks nothing.
func LoadNGList(path string, log *logger.Logger) (*NGList, error) {
	l := &NGList{log: log}
	if path == "" {
		return l, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.WithPayload(map[string]any{"path": path}).Warn("NG word file not found, blocking nothing")
			return l, nil
		}
		return nil, fmt.Errorf("failed to open NG word file '%s': %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse NG word file '%s': %w", path, err)
	}

	for i, row := range rows {
		if len(row) == 0 || row[0] == "" {
			continue
		}
		if i == 0 && strings.EqualFold(row[0], "ng") {
			continue
		}
		e := ngEntry{word: row[0]}
		if len(row) > 1 {
			e.reply = strings.TrimSpace(row[1])
		}
		l.entries = append(l.entries, e)
	}

	log.WithPayload(map[string]any{"count": len(l.entries)}).Info("NG word list loaded")
	return l, nil
}

// Check reports whether text contains a blocked word, and if so the reply to
// send instead of a generated answer.
func (l *NGList) Check(text string) (bool, string) {
	for _, allowed := range ngAllowlist {
		if strings.Contains(text, allowed) {
			return false, ""
		}
	}
	lower := strings.ToLower(text)
	for _, e := range l.entries {
		if strings.Contains(lower, strings.ToLower(e.word)) {
			if e.reply == "" {
				return true, DefaultNGMessage
			}
			return true, e.reply
		}
	}
	return false, ""
}

// Len reports how many blocked words are loaded.
func (l *NGList) Len() int {
	return len(l.entries)
}
