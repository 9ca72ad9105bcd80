package documents

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnippetCentresOnMatch(t *testing.T) {
	content := strings.Repeat("a", 200) + " quick brown fox jumps " + strings.Repeat("b", 200)

	got := Snippet(content, "fox")

	assert.Contains(t, got, "fox")
	assert.True(t, strings.HasPrefix(got, "..."))
	assert.True(t, strings.HasSuffix(got, "..."))
	// 75 runes either side of the match plus both ellipses.
	assert.Equal(t, 75+len("fox")+75+6, utf8.RuneCountInString(got))
}

func TestSnippetShortContentIsReturnedWhole(t *testing.T) {
	assert.Equal(t, "The quick brown fox", Snippet("The quick brown fox", "fox"))
}

func TestSnippetMatchNearStartHasNoPrefix(t *testing.T) {
	content := "fox " + strings.Repeat("z", 300)

	got := Snippet(content, "fox")

	assert.True(t, strings.HasPrefix(got, "fox"))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, len("fox")+75+3, utf8.RuneCountInString(got))
}

func TestSnippetMatchNearEndHasNoSuffix(t *testing.T) {
	content := strings.Repeat("z", 300) + " fox"

	got := Snippet(content, "fox")

	assert.True(t, strings.HasPrefix(got, "..."))
	assert.True(t, strings.HasSuffix(got, "fox"))
}

func TestSnippetIsCaseInsensitiveAndKeepsOriginalCase(t *testing.T) {
	got := Snippet("The Quick Brown FOX jumps", "fox")
	assert.Equal(t, "The Quick Brown FOX jumps", got)

	long := strings.Repeat("x", 100) + "FoX" + strings.Repeat("y", 100)
	assert.Contains(t, Snippet(long, "fox"), "FoX")
}

func TestSnippetKeywordMissing(t *testing.T) {
	long := strings.Repeat("abcde", 40)
	got := Snippet(long, "zzz")
	assert.Equal(t, long[:SnippetLength]+"...", got)

	assert.Equal(t, "short text", Snippet("short text", "zzz"))
}

func TestSnippetEmptyKeyword(t *testing.T) {
	assert.Equal(t, "", Snippet("anything", ""))
}

func TestSnippetCountsRunesNotBytes(t *testing.T) {
	content := strings.Repeat("é", 120) + "needle" + strings.Repeat("ü", 120)

	got := Snippet(content, "NEEDLE")

	require.True(t, utf8.ValidString(got))
	assert.Contains(t, got, "needle")
	assert.Equal(t, 75+len("needle")+75+6, utf8.RuneCountInString(got))
}

func TestSnippetProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	alphabet := []rune("abcXYZ fox FOX éß")
	randomText := func(n int) string {
		out := make([]rune, n)
		for i := range out {
			out[i] = alphabet[rng.Intn(len(alphabet))]
		}
		return string(out)
	}

	for i := 0; i < 500; i++ {
		content := randomText(rng.Intn(400))
		keyword := randomText(1 + rng.Intn(4))

		first := Snippet(content, keyword)
		assert.Equal(t, first, Snippet(content, keyword), "snippet must be deterministic")
		assert.LessOrEqual(t, utf8.RuneCountInString(first), utf8.RuneCountInString(content)+6)

		if indexFold([]rune(content), []rune(keyword)) >= 0 {
			assert.GreaterOrEqual(t, indexFold([]rune(first), []rune(keyword)), 0,
				"snippet %q of %q must contain %q", first, content, keyword)
		}
	}
}
