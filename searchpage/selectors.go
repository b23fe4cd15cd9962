package searchpage

import (
	"fmt"

	"cardsearch-e2e/browser"
)

// Selectors for the card-search markup. Positional XPaths mirror the live
// site's layout and are the first thing to update when it changes.
var (
	searchInput       = browser.ID("q")
	resultCard        = browser.ClassName("card-grid-item-card")
	searchInfo        = browser.ClassName("search-info")
	sortDropdown      = browser.ID("order")
	noCardsHeading    = browser.XPath(`//*[@id="main"]/div[3]/div/h1`)
	emptyQueryMessage = browser.XPath(`//*[@id="main"]/div[2]/p`)
)

const (
	sortOptionXPath     = `//*[@id="order"]/option[%d]`
	paginationLinkXPath = `//*[@id="main"]/div[1]/div/div[2]/a[%d]`
)

// releaseDateOption is the position of "Release Date" in the order select.
const releaseDateOption = 2

// Literal UI strings the scenarios assert on.
const (
	NoCardsText    = "No cards found"
	EmptyQueryText = "You didn't enter anything to search for."
)

func sortOption(n int) browser.Locator {
	return browser.XPath(fmt.Sprintf(sortOptionXPath, n))
}

func paginationLink(n int) browser.Locator {
	return browser.XPath(fmt.Sprintf(paginationLinkXPath, n))
}
