package semantic

import "testing"

func TestHashEmbedderIsDeterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	v1, err := e.Embed("func ParseConfig reads yaml")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	v2, err := e.Embed("func ParseConfig reads yaml")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	for i := range v1 {
		if v1[i] != v2[i] {
			t.Fatalf("embedding not deterministic at index %d: %v vs %v", i, v1[i], v2[i])
		}
	}
}

func TestHashEmbedderSharedVocabularyScoresHigherThanDisjoint(t *testing.T) {
	e := NewHashEmbedder(256)
	base, _ := e.Embed("parse yaml configuration file into struct")
	similar, _ := e.Embed("parse yaml config struct")
	disjoint, _ := e.Embed("render http response writer headers")

	if cosine(base, similar) <= cosine(base, disjoint) {
		t.Fatalf("expected shared-vocabulary text to score higher: similar=%f disjoint=%f",
			cosine(base, similar), cosine(base, disjoint))
	}
}

func TestHashEmbedderEmptyTextYieldsZeroVector(t *testing.T) {
	e := NewHashEmbedder(16)
	v, err := e.Embed("")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	for i, x := range v {
		if x != 0 {
			t.Fatalf("expected zero vector, index %d = %f", i, x)
		}
	}
}

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}
