package extract

import (
	"context"
	"strings"

	"github.com/jdkato/prose/v2"
)

// Entity is a named entity found in recognized text. Start and End are byte
// offsets into the text; both are -1 when the surface form could not be
// located.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// EntityRecognizer finds entities and noun phrases in text.
type EntityRecognizer interface {
	Analyze(ctx context.Context, text string) (Analysis, error)
}

// Prose implements EntityRecognizer with the prose NLP pipeline. Each text
// is tokenized and tagged once; entities and noun chunks both read from
// that parse.
type Prose struct{}

// newDocument is replaced in tests to count parses.
var newDocument = func(text string) (*prose.Document, error) {
	return prose.NewDocument(text)
}

func (Prose) Analyze(ctx context.Context, text string) (Analysis, error) {
	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}
	if strings.TrimSpace(text) == "" {
		return Analysis{}, nil
	}

	doc, err := newDocument(text)
	if err != nil {
		return Analysis{}, err
	}

	return Analysis{
		Entities:   entities(text, doc.Entities()),
		NounChunks: nounChunks(doc.Tokens()),
	}, nil
}

func entities(text string, found []prose.Entity) []Entity {
	out := make([]Entity, 0, len(found))
	cursor := 0
	for _, e := range found {
		start, end := locate(text, e.Text, cursor)
		if start >= 0 {
			cursor = end
		}
		out = append(out, Entity{
			Text:  e.Text,
			Label: e.Label,
			Start: start,
			End:   end,
		})
	}
	return out
}

// locate finds surface in text at or after from, falling back to the first
// occurrence anywhere.
func locate(text, surface string, from int) (int, int) {
	if surface == "" {
		return -1, -1
	}
	if i := strings.Index(text[from:], surface); i >= 0 {
		return from + i, from + i + len(surface)
	}
	if i := strings.Index(text, surface); i >= 0 {
		return i, i + len(surface)
	}
	return -1, -1
}

// nounChunks groups maximal runs of determiner, adjective, cardinal and
// noun tags, trimming each run back to its last noun.
func nounChunks(tokens []prose.Token) []string {
	var chunks []string
	var run []prose.Token

	flush := func() {
		last := -1
		for i, tok := range run {
			if isNoun(tok.Tag) {
				last = i
			}
		}
		if last >= 0 {
			words := make([]string, 0, last+1)
			for _, tok := range run[:last+1] {
				words = append(words, tok.Text)
			}
			chunks = append(chunks, strings.Join(words, " "))
		}
		run = run[:0]
	}

	for _, tok := range tokens {
		if inChunk(tok.Tag) {
			run = append(run, tok)
			continue
		}
		flush()
	}
	flush()
	return chunks
}

func isNoun(tag string) bool {
	return strings.HasPrefix(tag, "NN")
}

func inChunk(tag string) bool {
	switch {
	case tag == "DT", tag == "CD", tag == "PRP$":
		return true
	case strings.HasPrefix(tag, "JJ"), isNoun(tag):
		return true
	}
	return false
}
