package tags_test

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/JaimeStill/smart-ocr/internal/extract"
	"github.com/JaimeStill/smart-ocr/internal/tags"
)

func TestExtract_PriorityOrder(t *testing.T) {
	text := "Invoice 1001 from Acme Corp. Invoice total due. Invoice paid."
	entities := []extract.Entity{
		{Text: " Acme Corp ", Label: "ORG"},
		{Text: "   ", Label: "ORG"},
	}
	chunks := []string{"Invoice 1001", "the", "total (due)", "ok"}

	got := tags.Extract(text, entities, chunks)
	want := []string{
		"Acme Corp",
		"Invoice 1001",
		"total due",
		"invoice",
		"1001",
		"acme",
		"corp",
		"total",
		"due",
		"paid",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() =\n%v\nwant\n%v", got, want)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	text := "alpha beta gamma beta alpha alpha delta"
	first := tags.Extract(text, nil, nil)
	for range 20 {
		if got := tags.Extract(text, nil, nil); !reflect.DeepEqual(got, first) {
			t.Fatalf("Extract() = %v, want %v", got, first)
		}
	}
	want := []string{"alpha", "beta", "gamma", "delta"}
	if !reflect.DeepEqual(first, want) {
		t.Errorf("Extract() = %v, want %v", first, want)
	}
}

func TestExtract_CaseSensitiveDedupe(t *testing.T) {
	entities := []extract.Entity{{Text: "Acme"}, {Text: "Acme"}}
	got := tags.Extract("acme acme", entities, nil)

	want := []string{"Acme", "acme"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %v, want %v", got, want)
	}
}

func TestExtract_Cap(t *testing.T) {
	var entities []extract.Entity
	for i := range 80 {
		entities = append(entities, extract.Entity{Text: fmt.Sprintf("Entity %d", i)})
	}

	got := tags.Extract("word word word", entities, nil)
	if len(got) != tags.MaxTags {
		t.Errorf("len(Extract()) = %d, want %d", len(got), tags.MaxTags)
	}
	if got[0] != "Entity 0" || got[49] != "Entity 49" {
		t.Errorf("Extract() kept wrong prefix: first %q last %q", got[0], got[49])
	}
}

func TestExtractK_TopK(t *testing.T) {
	var words []string
	for i := range 30 {
		for range 30 - i {
			words = append(words, fmt.Sprintf("w%02d", i))
		}
	}

	got := tags.ExtractK(strings.Join(words, " "), nil, nil, 5)
	want := []string{"w00", "w01", "w02", "w03", "w04"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractK() = %v, want %v", got, want)
	}

	if got := tags.ExtractK("alpha beta", nil, nil, 0); len(got) != 0 {
		t.Errorf("ExtractK(k=0) = %v, want empty", got)
	}
}

func TestExtractK_TiesKeepFirstOccurrence(t *testing.T) {
	got := tags.ExtractK("delta gamma beta beta gamma alpha", nil, nil, 4)
	want := []string{"gamma", "beta", "delta", "alpha"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractK() = %v, want %v", got, want)
	}
}

func TestExtractK_LargeVocabulary(t *testing.T) {
	words := make([]string, 0, 20_001)
	for i := range 20_000 {
		words = append(words, fmt.Sprintf("tok%05d", i))
	}
	words = append(words, "tok19999")

	got := tags.ExtractK(strings.Join(words, " "), nil, nil, 3)
	want := []string{"tok19999", "tok00000", "tok00001"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractK() = %v, want %v", got, want)
	}
}

func TestExtract_StopWordsAndShortTokens(t *testing.T) {
	got := tags.Extract("The and THE with to of an ab x", nil, []string{"The", "an"})
	if len(got) != 0 {
		t.Errorf("Extract() = %v, want empty", got)
	}
}

func TestIsStopWord(t *testing.T) {
	for _, w := range []string{"the", "The", "FROM", "your"} {
		if !tags.IsStopWord(w) {
			t.Errorf("IsStopWord(%q) = false, want true", w)
		}
	}
	for _, w := range []string{"invoice", "theme"} {
		if tags.IsStopWord(w) {
			t.Errorf("IsStopWord(%q) = true, want false", w)
		}
	}
}
