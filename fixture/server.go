package fixture

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Options tunes the server. A zero RateLimit disables request limiting.
type Options struct {
	RateLimit float64
	Burst     int
}

// Server serves the replica site.
type Server struct {
	store   *Store
	log     logrus.FieldLogger
	limiter *rate.Limiter
	router  *mux.Router
}

func NewServer(store *Store, log logrus.FieldLogger, opts Options) *Server {
	s := &Server{store: store, log: log, router: mux.NewRouter()}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	s.router.HandleFunc("/", s.home).Methods(http.MethodGet)
	s.router.HandleFunc("/search", s.search).Methods(http.MethodGet)
	s.router.HandleFunc("/api/cards/search", s.apiSearch).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	return s
}

// Handler returns the router wrapped in the request log, CORS and rate limit
// middleware.
func (s *Server) Handler() http.Handler {
	return s.rateLimitMiddleware(enableCORS(s.logRequests(s.router)))
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	s.render(w, "home", pageView{Title: "Card Search"})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := strings.TrimSpace(params.Get("q"))
	if q == "" {
		s.render(w, "emptyquery", pageView{Title: "Search · Card Search"})
		return
	}

	order := params.Get("order")
	res, err := s.store.Search(SearchQuery{Text: q, Order: order, Page: pageParam(params)})
	if err != nil {
		s.log.WithError(err).Error("Failed to search cards")
		http.Error(w, "Search failed", http.StatusInternalServerError)
		return
	}

	view := pageView{
		Title:     q + " · Card Search",
		Query:     q,
		Orders:    orderOptions(order),
		Cards:     res.Cards,
		Total:     res.Total,
		Page:      res.Page,
		PageCount: res.PageCount,
	}
	if res.Total == 0 {
		s.render(w, "nocards", view)
		return
	}
	view.From = (res.Page-1)*PageSize + 1
	view.To = view.From + len(res.Cards) - 1
	view.Pager = pager(q, order, res)

	s.log.WithFields(logrus.Fields{
		"action": "search",
		"query":  q,
		"page":   res.Page,
		"count":  len(res.Cards),
	}).Debug("Rendered search results")
	s.render(w, "results", view)
}

// listResponse mirrors the public search API's list object.
type listResponse struct {
	Object     string `json:"object"`
	TotalCards int64  `json:"total_cards"`
	HasMore    bool   `json:"has_more"`
	NextPage   string `json:"next_page,omitempty"`
	Data       []Card `json:"data"`
}

type errorResponse struct {
	Object  string `json:"object"`
	Code    string `json:"code"`
	Status  int    `json:"status"`
	Details string `json:"details"`
}

func (s *Server) apiSearch(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := strings.TrimSpace(params.Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Object: "error", Code: "bad_request", Status: http.StatusBadRequest,
			Details: "You didn't enter anything to search for.",
		})
		return
	}

	order := params.Get("order")
	res, err := s.store.Search(SearchQuery{Text: q, Order: order, Page: pageParam(params)})
	if err != nil {
		s.log.WithError(err).Error("Failed to search cards")
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Object: "error", Code: "internal", Status: http.StatusInternalServerError,
			Details: "Search failed",
		})
		return
	}
	if res.Total == 0 {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Object: "error", Code: "not_found", Status: http.StatusNotFound,
			Details: "Your query didn't match any cards.",
		})
		return
	}

	body := listResponse{
		Object:     "list",
		TotalCards: res.Total,
		HasMore:    res.HasMore(),
		Data:       res.Cards,
	}
	if body.HasMore {
		body.NextPage = "/api/cards/search?" + searchValues(q, order, res.Page+1).Encode()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.Count()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "cards": n})
}

func (s *Server) render(w http.ResponseWriter, name string, view pageView) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, view); err != nil {
		s.log.WithError(err).WithField("template", name).Error("Template execution error")
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func pageParam(params url.Values) int {
	n, err := strconv.Atoi(params.Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func searchValues(q, order string, page int) url.Values {
	v := url.Values{}
	v.Set("q", q)
	if order != "" {
		v.Set("order", order)
	}
	v.Set("page", strconv.Itoa(page))
	return v
}

func orderOptions(current string) []orderOption {
	out := make([]orderOption, len(Orders))
	for i, o := range Orders {
		out[i] = orderOption{Value: o.Value, Label: o.Label, Selected: o.Value == current}
	}
	return out
}

// pager builds First, Previous, Next, Last. Unavailable links render as
// disabled spans, so on the first page the Next link is the bar's first <a>.
func pager(q, order string, res SearchResult) []pagerLink {
	link := func(label string, page int, ok bool) pagerLink {
		if !ok {
			return pagerLink{Label: label}
		}
		return pagerLink{Label: label, Href: "/search?" + searchValues(q, order, page).Encode()}
	}
	return []pagerLink{
		link("« First", 1, res.Page > 1),
		link("‹ Previous", res.Page-1, res.Page > 1),
		link("Next "+strconv.Itoa(PageSize)+" ›", res.Page+1, res.HasMore()),
		link("Last »", res.PageCount, res.HasMore()),
	}
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			http.Error(w, "429 Too Many Requests: Rate limit exceeded", http.StatusTooManyRequests)
			s.log.WithFields(logrus.Fields{
				"path":   r.URL.Path,
				"method": r.Method,
				"client": r.RemoteAddr,
			}).Warn("Rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"path":     r.URL.Path,
			"method":   r.Method,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Info("Request served")
	})
}

// enableCORS lets the API be called from other origins.
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
