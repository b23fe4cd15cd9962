package fixture

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

type ServerSuite struct {
	suite.Suite
	store   *Store
	handler http.Handler
}

func (s *ServerSuite) SetupSuite() {
	store, err := OpenStore(filepath.Join(s.T().TempDir(), "cards.db"))
	s.Require().NoError(err)
	s.store = store

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s.handler = NewServer(store, logger, Options{}).Handler()
}

func (s *ServerSuite) TearDownSuite() {
	s.NoError(s.store.Close())
}

func (s *ServerSuite) get(target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func (s *ServerSuite) document(target string) *goquery.Document {
	rr := s.get(target)
	s.Require().Equal(http.StatusOK, rr.Code, "GET %s", target)
	doc, err := goquery.NewDocumentFromReader(rr.Body)
	s.Require().NoError(err)
	return doc
}

// mainChild returns the n-th (1-based) div child of #main, the way the
// positional XPaths address it.
func mainChild(doc *goquery.Document, n int) *goquery.Selection {
	return doc.Find("#main").ChildrenFiltered("div").Eq(n - 1)
}

func (s *ServerSuite) TestHomeHasSearchInput() {
	doc := s.document("/")
	input := doc.Find("form[action='/search'] input#q")
	s.Equal(1, input.Length())
	name, _ := input.Attr("name")
	s.Equal("q", name)
}

func (s *ServerSuite) TestValidSearch() {
	doc := s.document("/search?q=gandalf")

	s.Equal(1, doc.Find(".search-info").Length())
	cards := doc.Find(".card-grid-item-card")
	s.Equal(5, cards.Length())
	cards.Each(func(i int, c *goquery.Selection) {
		s.Contains(strings.ToLower(c.Text()), "gandalf", "card %d", i)
	})
}

func (s *ServerSuite) TestSearchIsCaseInsensitive() {
	lower := s.document("/search?q=gandalf").Find(".card-grid-item-card").Length()
	upper := s.document("/search?q=GANDALF").Find(".card-grid-item-card").Length()
	s.Equal(lower, upper)
}

func (s *ServerSuite) TestInvalidSearch() {
	doc := s.document("/search?q=" + url.QueryEscape("~~@#~@#~@!!!"))

	heading := mainChild(doc, 3).ChildrenFiltered("div").First().ChildrenFiltered("h1")
	s.Equal("No cards found", strings.TrimSpace(heading.Text()))
	s.Zero(doc.Find(".card-grid-item-card").Length())
}

func (s *ServerSuite) TestEmptySearch() {
	for _, target := range []string{"/search?q=", "/search?q=+++", "/search"} {
		doc := s.document(target)
		msg := mainChild(doc, 2).ChildrenFiltered("p")
		s.Equal("You didn't enter anything to search for.", strings.TrimSpace(msg.Text()), target)
		s.Zero(doc.Find(".card-grid-item-card").Length(), target)
	}
}

func (s *ServerSuite) TestSortOrderSelects() {
	doc := s.document("/search?q=lotus&order=released")

	selects := doc.Find("select#order")
	s.Equal(2, selects.Length())

	second := selects.First().ChildrenFiltered("option").Eq(1)
	s.Equal("released", second.AttrOr("value", ""))
	_, selected := second.Attr("selected")
	s.True(selected)

	first := selects.First().ChildrenFiltered("option").Eq(0)
	_, selected = first.Attr("selected")
	s.False(selected)
}

func (s *ServerSuite) TestSortByReleaseDateOrdersNewestFirst() {
	res, err := s.store.Search(SearchQuery{Text: "lotus", Order: "released", Page: 1})
	s.Require().NoError(err)
	s.Require().NotEmpty(res.Cards)
	for i := 1; i < len(res.Cards); i++ {
		s.False(res.Cards[i].ReleasedAt.After(res.Cards[i-1].ReleasedAt),
			"%s released after %s", res.Cards[i].Name, res.Cards[i-1].Name)
	}
}

func (s *ServerSuite) TestPagination() {
	bar := func(doc *goquery.Document) *goquery.Selection {
		return mainChild(doc, 1).ChildrenFiltered("div").First().ChildrenFiltered("div").Eq(1)
	}

	page1 := s.document("/search?q=mage")
	s.Equal(PageSize, page1.Find(".card-grid-item-card").Length())
	next, ok := bar(page1).ChildrenFiltered("a").Eq(0).Attr("href")
	s.Require().True(ok)
	s.Contains(next, "page=2")

	page2 := s.document(next)
	s.Equal(PageSize, page2.Find(".card-grid-item-card").Length())
	links := bar(page2).ChildrenFiltered("a")
	s.Equal(4, links.Length())
	third, ok := links.Eq(2).Attr("href")
	s.Require().True(ok)
	s.Contains(third, "page=3")

	page3 := s.document(third)
	cards := page3.Find(".card-grid-item-card")
	s.Equal(144-2*PageSize, cards.Length())
	cards.Each(func(i int, c *goquery.Selection) {
		s.Contains(strings.ToLower(c.Text()), "mage", "card %d", i)
	})
	s.Equal(2, bar(page3).ChildrenFiltered("span.disabled").Length(), "next and last are disabled on the last page")
}

func (s *ServerSuite) TestPageBeyondEndIsClamped() {
	doc := s.document("/search?q=mage&page=99")
	s.Equal(144-2*PageSize, doc.Find(".card-grid-item-card").Length())
}

func (s *ServerSuite) TestAPISearch() {
	rr := s.get("/api/cards/search?q=mage")
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Equal("application/json", rr.Header().Get("Content-Type"))

	var body listResponse
	s.Require().NoError(json.NewDecoder(rr.Body).Decode(&body))
	s.Equal("list", body.Object)
	s.EqualValues(144, body.TotalCards)
	s.True(body.HasMore)
	s.Contains(body.NextPage, "page=2")
	s.Len(body.Data, PageSize)
}

func (s *ServerSuite) TestAPIErrors() {
	rr := s.get("/api/cards/search?q=")
	s.Equal(http.StatusBadRequest, rr.Code)

	rr = s.get("/api/cards/search?q=" + url.QueryEscape("~~@#~@#~@!!!"))
	s.Equal(http.StatusNotFound, rr.Code)
	var body errorResponse
	s.Require().NoError(json.NewDecoder(rr.Body).Decode(&body))
	s.Equal("not_found", body.Code)
}

func (s *ServerSuite) TestLikeWildcardsAreLiteral() {
	res, err := s.store.Search(SearchQuery{Text: "%", Page: 1})
	s.Require().NoError(err)
	s.Zero(res.Total)

	res, err = s.store.Search(SearchQuery{Text: "_", Page: 1})
	s.Require().NoError(err)
	s.Zero(res.Total)
}

func (s *ServerSuite) TestHealthz() {
	rr := s.get("/healthz")
	s.Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Body.String(), `"status":"ok"`)
}

func (s *ServerSuite) TestCORSPreflight() {
	req := httptest.NewRequest(http.MethodOptions, "/api/cards/search", nil)
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	s.Equal(http.StatusOK, rr.Code)
	s.Equal("*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func TestRateLimit(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "cards.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	h := NewServer(store, logger, Options{RateLimit: 0.001, Burst: 2}).Handler()

	codes := make([]int, 3)
	for i := range codes {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		codes[i] = rr.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status codes %v", codes)
	}
}

func TestSeedCards(t *testing.T) {
	cards := SeedCards()
	mages := 0
	for _, c := range cards {
		if strings.Contains(strings.ToLower(c.Name), "mage") {
			mages++
		}
	}
	if mages <= 2*PageSize {
		t.Fatalf("seed needs more than two pages of mage cards, has %d", mages)
	}
}
