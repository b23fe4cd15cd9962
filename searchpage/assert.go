package searchpage

import (
	"strings"

	"github.com/stretchr/testify/require"

	"cardsearch-e2e/browser"
)

var quoteFolder = strings.NewReplacer("‘", "'", "’", "'", "“", `"`, "”", `"`)

// NormalizeText folds typographic quotes to ASCII and trims surrounding
// whitespace, so UI strings compare the same whichever quote style the site
// renders.
func NormalizeText(s string) string {
	return quoteFolder.Replace(strings.TrimSpace(s))
}

// Matches reports whether text contains query, ignoring case.
func Matches(text, query string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(query))
}

// AssertResults fails t at the first result card whose text does not contain
// query, case-insensitively.
func (p *Page) AssertResults(t require.TestingT, query string) {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	cards, err := p.ResultCards()
	require.NoError(t, err, "fetching result cards")
	for i, card := range cards {
		text, err := card.Text()
		require.NoErrorf(t, err, "reading result card %d", i)
		require.Truef(t, Matches(text, query),
			"result card %d of %d: %q does not contain %q", i+1, len(cards), text, query)
	}
}

// AssertNoResults fails t unless the page renders no result cards.
func (p *Page) AssertNoResults(t require.TestingT) {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	cards, err := p.ResultCards()
	require.NoError(t, err, "fetching result cards")
	require.Emptyf(t, cards, "expected no result cards, found %d", len(cards))
}

// AssertText fails t unless el's text equals want after NormalizeText.
func AssertText(t require.TestingT, el browser.Element, want string) {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	got, err := el.Text()
	require.NoError(t, err, "reading element text")
	require.Equal(t, NormalizeText(want), NormalizeText(got))
}
