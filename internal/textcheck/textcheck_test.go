package textcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases and trims", "  Buongiorno  ", "buongiorno"},
		{"strips accents", "caffè perché così", "caffe perche cosi"},
		{"collapses punctuation", "vorrei... un caffè, per favore!", "vorrei un caffe per favore"},
		{"keeps digits", "alle 9 e 30", "alle 9 e 30"},
		{"curly apostrophe", "c’è un problema", "c e un problema"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestBuildAnchors(t *testing.T) {
	// stopwords drop out, digits stay, duplicates collapse
	assert.Equal(t, []string{"vorrei", "caffe"}, BuildAnchors("vorrei un caffè"))
	assert.Equal(t, []string{"camera", "2", "notti"}, BuildAnchors("una camera per 2 notti"))
	assert.Equal(t, []string{"posso", "pagare", "carta"}, BuildAnchors("posso pagare con la carta, la carta"))
	assert.Empty(t, BuildAnchors("il lo la"))
}

func TestOneEditAway(t *testing.T) {
	assert.True(t, oneEditAway("caffe", "caffe"))
	assert.True(t, oneEditAway("caffe", "cafe"))   // deletion
	assert.True(t, oneEditAway("caffe", "caffee")) // insertion
	assert.True(t, oneEditAway("caffe", "caffa"))  // substitution
	assert.False(t, oneEditAway("caffe", "late"))
	assert.False(t, oneEditAway("ab", "abcd"))
}

func TestValidateSentence(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		target string
		ok     bool
	}{
		{"exact coverage", "vorrei un caffè per favore", "vorrei un caffè", true},
		{"typo tolerated", "vorei un cafe grazie", "vorrei un caffè", true},
		{"two of three anchors", "dov'è il controllo passaporti", "dove si trova il controllo passaporti", true},
		{"unrelated sentence", "mi piace la pizza", "vorrei prenotare una camera", false},
		{"number required and present", "una camera per 2 notti grazie", "una camera per 2 notti", true},
		{"number required and missing", "una camera per molte notti", "una camera per 2 notti", false},
		{"no anchors passes", "qualsiasi cosa", "il lo la", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, _ := ValidateSentence(tt.input, tt.target)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestValidateSentenceReportsHits(t *testing.T) {
	ok, res := ValidateSentence("vorrei un caffè", "vorrei un caffè macchiato")
	assert.True(t, ok)
	assert.Equal(t, []string{"vorrei", "caffe", "macchiato"}, res.Anchors)
	assert.Equal(t, []string{"vorrei", "caffe"}, res.Hits)
	assert.Equal(t, 2, res.MinHits)
}

func TestAcceptableSentence(t *testing.T) {
	assert.False(t, AcceptableSentence("ab"))
	assert.False(t, AcceptableSentence("  a  "))
	assert.False(t, AcceptableSentence("123"))
	assert.False(t, AcceptableSentence(""))
	assert.True(t, AcceptableSentence("ciao"))
	assert.True(t, AcceptableSentence("ho 2 valigie"))
}
