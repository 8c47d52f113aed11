package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeNormalizes(t *testing.T) {
	tok := NewTokenizer(false)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"lowercases and drops stopwords", "The boiler needs SERVICE!", []string{"boiler", "needs", "service"}},
		{"splits on punctuation", "pressure-relief valve (PRV)", []string{"pressure", "relief", "valve", "prv"}},
		{"drops single characters", "a I x 42", []string{"42"}},
		{"keeps underscores inside words", "max_temp limits", []string{"max_temp", "limits"}},
		{"keeps unicode letters", "café menu", []string{"café", "menu"}},
		{"empty input", "   \n\t ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tok.Tokenize(tt.text)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenizeWithStemming(t *testing.T) {
	tok := NewTokenizer(true)

	got := tok.Tokenize("The boiler needs SERVICE!")
	assert.Equal(t, []string{"boiler", "need", "servic"}, got)

	// Inflected forms of a word land on the same term.
	assert.Equal(t, tok.Tokenize("heating"), tok.Tokenize("heated"))
	assert.Equal(t, tok.Tokenize("services"), tok.Tokenize("service"))
}

func TestTokenizeIsDeterministic(t *testing.T) {
	tok := NewTokenizer(true)
	text := "Annual boiler servicing: drain, inspect and refill the system."

	first := tok.Tokenize(text)
	second := tok.Tokenize(text)
	assert.Equal(t, first, second)
}

func TestTermFrequencies(t *testing.T) {
	tok := NewTokenizer(false)

	freqs, total := tok.TermFrequencies("boiler boiler pump")
	assert.Equal(t, map[string]int{"boiler": 2, "pump": 1}, freqs)
	assert.Equal(t, 3, total)

	freqs, total = tok.TermFrequencies("")
	assert.Empty(t, freqs)
	assert.Zero(t, total)
}

func TestVersionIsStable(t *testing.T) {
	assert.Equal(t, Version, NewTokenizer(true).Version())
	assert.Equal(t, Version, NewTokenizer(false).Version())
}

func TestStemKnownForms(t *testing.T) {
	s := NewPorterStemmer()

	tests := []struct {
		word string
		want string
	}{
		{"caresses", "caress"},
		{"ponies", "poni"},
		{"running", "run"},
		{"heating", "heat"},
		{"services", "servic"},
		{"department", "depart"},
		{"documents", "document"},
		{"boiler", "boiler"},
		{"agreed", "agre"},
		{"relational", "relat"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, s.Stem(tt.word), "stem of %q", tt.word)
	}
}

func TestStemShortWordsUntouched(t *testing.T) {
	s := NewPorterStemmer()
	assert.Equal(t, "go", s.Stem("go"))
	assert.Equal(t, "at", s.Stem("at"))
}
