package searchpage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardsearch-e2e/browser"
	"cardsearch-e2e/browser/fakebrowser"
)

// recorder is a require.TestingT that turns FailNow into a recoverable
// panic so failing assertions can be asserted on.
type recorder struct {
	msgs []string
}

type failNow struct{}

func (r *recorder) Errorf(format string, args ...interface{}) {
	r.msgs = append(r.msgs, fmt.Sprintf(format, args...))
}

func (r *recorder) FailNow() { panic(failNow{}) }

func expectFailure(t *testing.T, fn func(r *recorder)) string {
	t.Helper()
	r := &recorder{}
	failed := func() (failed bool) {
		defer func() {
			if v := recover(); v != nil {
				if _, ok := v.(failNow); !ok {
					panic(v)
				}
				failed = true
			}
		}()
		fn(r)
		return false
	}()
	require.True(t, failed, "expected assertion to fail")
	require.NotEmpty(t, r.msgs)
	return r.msgs[0]
}

func openPage(t *testing.T, s *fakebrowser.Session) *Page {
	t.Helper()
	s.Set(searchInput, &fakebrowser.Element{Name: "q"})
	p, err := Open(s, "https://cards.test/")
	require.NoError(t, err)
	return p
}

func cards(names ...string) []*fakebrowser.Element {
	out := make([]*fakebrowser.Element, len(names))
	for i, n := range names {
		out[i] = fakebrowser.Text(n)
	}
	return out
}

func TestOpen(t *testing.T) {
	s := fakebrowser.NewSession()
	p := openPage(t, s)

	assert.True(t, s.Maximized)
	assert.Equal(t, []string{"https://cards.test/"}, s.Visited)
	assert.Same(t, s, p.Session())
	assert.NotNil(t, p.SearchInput())
}

func TestOpenWithoutSearchInput(t *testing.T) {
	s := fakebrowser.NewSession()
	_, err := Open(s, "https://cards.test/")
	require.Error(t, err)
	assert.True(t, errors.Is(err, browser.ErrElementNotFound))
}

func TestOpenNavigationFailure(t *testing.T) {
	s := fakebrowser.NewSession()
	s.NavigateErr = errors.New("net::ERR_NAME_NOT_RESOLVED")
	_, err := Open(s, "https://cards.test/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERR_NAME_NOT_RESOLVED")
}

func TestEnterSearch(t *testing.T) {
	s := fakebrowser.NewSession()
	p := openPage(t, s)

	require.NoError(t, p.EnterSearch("gandalf"))

	input := p.SearchInput().(*fakebrowser.Element)
	assert.Equal(t, []string{"gandalf", browser.EnterKey}, input.Typed)
}

func TestSubmitEmpty(t *testing.T) {
	s := fakebrowser.NewSession()
	p := openPage(t, s)

	require.NoError(t, p.Submit())

	input := p.SearchInput().(*fakebrowser.Element)
	assert.Equal(t, []string{browser.EnterKey}, input.Typed)
}

func TestAssertResults(t *testing.T) {
	s := fakebrowser.NewSession()
	p := openPage(t, s)
	s.Set(resultCard, cards("Gandalf the Grey", "GANDALF THE WHITE", "Gandalf's Sanction")...)

	p.AssertResults(t, "gandalf")
	p.AssertResults(t, "Gandalf")
}

func TestAssertResultsReportsFirstMismatch(t *testing.T) {
	s := fakebrowser.NewSession()
	p := openPage(t, s)
	s.Set(resultCard, cards("Storm Mage", "Iron Archmage", "Storm Drake", "Sky Wurm")...)

	msg := expectFailure(t, func(r *recorder) { p.AssertResults(r, "mage") })
	assert.Contains(t, msg, "result card 3 of 4")
	assert.Contains(t, msg, "Storm Drake")
	assert.NotContains(t, msg, "Sky Wurm")
}

func TestAssertResultsEmptyPasses(t *testing.T) {
	s := fakebrowser.NewSession()
	p := openPage(t, s)
	p.AssertResults(t, "anything")
}

func TestAssertNoResults(t *testing.T) {
	s := fakebrowser.NewSession()
	p := openPage(t, s)
	p.AssertNoResults(t)

	s.Set(resultCard, cards("Black Lotus")...)
	msg := expectFailure(t, func(r *recorder) { p.AssertNoResults(r) })
	assert.Contains(t, msg, "found 1")
}

func TestResultTexts(t *testing.T) {
	s := fakebrowser.NewSession()
	p := openPage(t, s)
	s.Set(resultCard, cards("Lotus Petal", "Black Lotus")...)

	texts, err := p.ResultTexts()
	require.NoError(t, err)
	assert.Equal(t, []string{"Lotus Petal", "Black Lotus"}, texts)
}

func TestAssertText(t *testing.T) {
	AssertText(t, fakebrowser.Text("You didn‘t enter anything to search for."), EmptyQueryText)
	AssertText(t, fakebrowser.Text("  No cards found\n"), NoCardsText)

	msg := expectFailure(t, func(r *recorder) {
		AssertText(r, fakebrowser.Text("Some cards found"), NoCardsText)
	})
	assert.Contains(t, msg, "Some cards found")
}

func TestPagination(t *testing.T) {
	s := fakebrowser.NewSession()
	p := openPage(t, s)

	next := &fakebrowser.Element{Name: "next"}
	s.Set(paginationLink(1), next)
	s.Set(paginationLink(3), &fakebrowser.Element{Name: "next-from-page-2"})

	el, err := p.NextPageControl()
	require.NoError(t, err)
	assert.Same(t, next, el)

	el, err = p.PaginationLink(3)
	require.NoError(t, err)
	assert.Equal(t, "next-from-page-2", el.(*fakebrowser.Element).Name)

	_, err = p.PaginationLink(0)
	assert.Error(t, err)

	assert.Equal(t, `//*[@id="main"]/div[1]/div/div[2]/a[3]`, paginationLink(3).Value)
}

func TestSortAccessors(t *testing.T) {
	s := fakebrowser.NewSession()
	p := openPage(t, s)

	released := &fakebrowser.Element{Attrs: map[string]string{"selected": "true"}}
	s.Set(sortDropdown, &fakebrowser.Element{}, &fakebrowser.Element{})
	s.Set(sortOption(releaseDateOption), released)

	dropdowns, err := p.SortDropdowns()
	require.NoError(t, err)
	assert.Len(t, dropdowns, 2)

	opt, err := p.ReleaseDateOption()
	require.NoError(t, err)
	selected, err := opt.Attribute("selected")
	require.NoError(t, err)
	assert.Equal(t, "true", selected)

	assert.Equal(t, `//*[@id="order"]/option[2]`, sortOption(releaseDateOption).Value)
	_, err = p.SortOption(0)
	assert.Error(t, err)
	_, err = p.SortOption(3)
	assert.ErrorIs(t, err, browser.ErrElementNotFound)
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("Gandalf the Grey", "GANDALF"))
	assert.True(t, Matches("Iron Archmage", "mage"))
	assert.False(t, Matches("Storm Drake", "mage"))
}
