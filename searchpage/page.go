// Package searchpage is the page object for the card-search site. Tests use
// its named accessors instead of raw selectors.
package searchpage

import (
	"fmt"

	"cardsearch-e2e/browser"
)

// Page is one test's view of the site. It is not safe for concurrent use;
// each test opens its own.
type Page struct {
	session browser.Session
	input   browser.Element
}

// Open maximizes the window, loads url and locates the search input.
func Open(s browser.Session, url string) (*Page, error) {
	if err := s.MaximizeWindow(); err != nil {
		return nil, fmt.Errorf("maximizing window: %w", err)
	}
	if err := s.Navigate(url); err != nil {
		return nil, fmt.Errorf("navigating to %s: %w", url, err)
	}
	input, err := s.FindElement(searchInput)
	if err != nil {
		return nil, fmt.Errorf("locating search input: %w", err)
	}
	return &Page{session: s, input: input}, nil
}

// Session exposes the underlying browser session.
func (p *Page) Session() browser.Session {
	return p.session
}

// SearchInput is the query field located when the page was opened.
func (p *Page) SearchInput() browser.Element {
	return p.input
}

// EnterSearch types query into the search field and submits it with Enter.
func (p *Page) EnterSearch(query string) error {
	if err := p.input.SendKeys(query); err != nil {
		return fmt.Errorf("typing %q: %w", query, err)
	}
	return p.Submit()
}

// Submit presses Enter in the search field without typing anything.
func (p *Page) Submit() error {
	if err := p.input.SendKeys(browser.EnterKey); err != nil {
		return fmt.Errorf("submitting search: %w", err)
	}
	return nil
}

// ResultCards returns every result card on the current page.
func (p *Page) ResultCards() ([]browser.Element, error) {
	return p.session.FindElements(resultCard)
}

// ResultTexts returns the visible text of every result card, in page order.
func (p *Page) ResultTexts() ([]string, error) {
	cards, err := p.ResultCards()
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(cards))
	for i, c := range cards {
		text, err := c.Text()
		if err != nil {
			return nil, fmt.Errorf("reading result %d: %w", i, err)
		}
		texts = append(texts, text)
	}
	return texts, nil
}

// SearchInfo is the "N cards where..." summary above the results.
func (p *Page) SearchInfo() (browser.Element, error) {
	return p.session.FindElement(searchInfo)
}

// NoCardsHeading is the heading shown when a query matches nothing.
func (p *Page) NoCardsHeading() (browser.Element, error) {
	return p.session.FindElement(noCardsHeading)
}

// EmptyQueryMessage is the notice shown after submitting an empty query.
func (p *Page) EmptyQueryMessage() (browser.Element, error) {
	return p.session.FindElement(emptyQueryMessage)
}

// SortDropdowns returns every sort-order select; the results page renders
// one above and one below the grid.
func (p *Page) SortDropdowns() ([]browser.Element, error) {
	return p.session.FindElements(sortDropdown)
}

// SortOption is the n-th (1-based) option of the first sort-order select.
func (p *Page) SortOption(n int) (browser.Element, error) {
	if n < 1 {
		return nil, fmt.Errorf("sort option index %d: must be 1 or more", n)
	}
	return p.session.FindElement(sortOption(n))
}

// ReleaseDateOption is the "by release date" entry of the sort-order select.
func (p *Page) ReleaseDateOption() (browser.Element, error) {
	return p.SortOption(releaseDateOption)
}

// NextPageControl is the "next 60 results" link on the first result page.
func (p *Page) NextPageControl() (browser.Element, error) {
	return p.PaginationLink(1)
}

// PaginationLink is the n-th (1-based) link of the pagination bar. On page
// two and later the bar reads First, Previous, Next, Last.
func (p *Page) PaginationLink(n int) (browser.Element, error) {
	if n < 1 {
		return nil, fmt.Errorf("pagination link index %d: must be 1 or more", n)
	}
	return p.session.FindElement(paginationLink(n))
}
