// Package pockettwin is an in-memory stand-in for the parts of the Pocket
// v3 API the client talks to. Tests mount it on an httptest.Server.
package pockettwin

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Item is a saved item as seeded into the twin.
type Item struct {
	ItemID   string
	URL      string
	Title    string
	Favorite bool
	Archived bool
	Tags     []string
	Added    time.Time
}

// Request is a call the twin received.
type Request struct {
	Path   string
	Header http.Header
	Form   url.Values
}

type cannedResponse struct {
	status int
	xError string
	body   string
}

type grant struct {
	approved bool
	used     bool
}

// Twin holds the fake account state.
type Twin struct {
	ConsumerKey string
	Username    string

	router *chi.Mux

	mu        sync.Mutex
	seq       int
	codes     map[string]*grant
	tokens    map[string]string
	items     []Item
	requests  []Request
	canned    map[string]cannedResponse
	listError *string
	now       func() time.Time
}

// New creates a twin accepting consumerKey.
func New(consumerKey string) *Twin {
	t := &Twin{
		ConsumerKey: consumerKey,
		Username:    "pocketuser",
		codes:       make(map[string]*grant),
		tokens:      make(map[string]string),
		canned:      make(map[string]cannedResponse),
		now:         time.Now,
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(t.record)
	r.Route("/v3", func(r chi.Router) {
		r.Use(t.serveCanned)
		r.Post("/oauth/request", t.handleRequestToken)
		r.Post("/oauth/authorize", t.handleAuthorize)
		r.Post("/get", t.handleGet)
	})
	t.router = r

	return t
}

// Handler returns the twin's HTTP handler.
func (t *Twin) Handler() http.Handler {
	return t.router
}

// AddItems seeds items into the account.
func (t *Twin) AddItems(items ...Item) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, items...)
}

// Approve marks a request token as authorized by the user.
func (t *Twin) Approve(code string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	g, ok := t.codes[code]
	if !ok {
		return false
	}
	g.approved = true
	return true
}

// GrantAccessToken registers an access token without going through the handshake.
func (t *Twin) GrantAccessToken(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tokens[token] = t.Username
}

// SetListError makes /get answer 200 with the envelope's error field set.
func (t *Twin) SetListError(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listError = &msg
}

// SetResponse makes path (e.g. "/v3/get") answer with a fixed status and body.
func (t *Twin) SetResponse(path string, status int, body string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.canned[path] = cannedResponse{status: status, body: body}
}

// SetFailure makes path answer with status and an X-Error header, as Pocket does.
func (t *Twin) SetFailure(path string, status int, xError string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.canned[path] = cannedResponse{status: status, xError: xError}
}

// Requests returns a copy of the calls received so far.
func (t *Twin) Requests() []Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Request, len(t.requests))
	copy(out, t.requests)
	return out
}

// record parses the form body and stores the call. The client sends form
// bodies with a JSON content type, so ParseForm would skip them.
func (t *Twin) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		form, err := url.ParseQuery(string(raw))
		if err != nil {
			writeFailure(w, http.StatusBadRequest, "Invalid request body.")
			return
		}
		r.Form = form

		t.mu.Lock()
		t.requests = append(t.requests, Request{
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Form:   form,
		})
		t.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (t *Twin) serveCanned(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.mu.Lock()
		c, ok := t.canned[r.URL.Path]
		t.mu.Unlock()
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		if c.xError != "" {
			w.Header().Set("X-Error", c.xError)
		}
		w.WriteHeader(c.status)
		_, _ = io.WriteString(w, c.body)
	})
}

func (t *Twin) checkConsumerKey(w http.ResponseWriter, r *http.Request) bool {
	key := r.Form.Get("consumer_key")
	if key == "" {
		writeFailure(w, http.StatusBadRequest, "Missing consumer key.")
		return false
	}
	if key != t.ConsumerKey {
		writeFailure(w, http.StatusForbidden, "Invalid consumer key.")
		return false
	}
	return true
}

func (t *Twin) handleRequestToken(w http.ResponseWriter, r *http.Request) {
	if !t.checkConsumerKey(w, r) {
		return
	}
	if r.Form.Get("redirect_uri") == "" {
		writeFailure(w, http.StatusBadRequest, "Invalid redirect uri.")
		return
	}

	t.mu.Lock()
	t.seq++
	code := fmt.Sprintf("code-%d", t.seq)
	t.codes[code] = &grant{}
	t.mu.Unlock()

	writeJSON(w, map[string]any{"code": code, "state": nil})
}

func (t *Twin) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	if !t.checkConsumerKey(w, r) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	g, ok := t.codes[r.Form.Get("code")]
	switch {
	case !ok:
		writeFailure(w, http.StatusBadRequest, "Invalid code.")
		return
	case g.used:
		writeFailure(w, http.StatusForbidden, "Already used code.")
		return
	case !g.approved:
		writeFailure(w, http.StatusForbidden, "User rejected code.")
		return
	}

	g.used = true
	t.seq++
	token := fmt.Sprintf("token-%d", t.seq)
	t.tokens[token] = t.Username

	writeJSON(w, map[string]any{"access_token": token, "username": t.Username})
}

func (t *Twin) handleGet(w http.ResponseWriter, r *http.Request) {
	if !t.checkConsumerKey(w, r) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.tokens[r.Form.Get("access_token")]; !ok {
		writeFailure(w, http.StatusUnauthorized, "Invalid access token.")
		return
	}

	envelope := map[string]any{
		"status":      1,
		"complete":    1,
		"error":       t.listError,
		"search_meta": map[string]any{"search_type": "normal"},
		"since":       t.now().Unix(),
	}

	if len(t.items) == 0 {
		envelope["status"] = 2
		envelope["list"] = []any{}
	} else {
		list := make(map[string]any, len(t.items))
		for i, item := range t.items {
			list[item.ItemID] = wireItem(item, i)
		}
		envelope["list"] = list
	}

	writeJSON(w, envelope)
}

func wireItem(item Item, sortID int) map[string]any {
	flag := func(b bool) string {
		if b {
			return "1"
		}
		return "0"
	}

	added := "0"
	if !item.Added.IsZero() {
		added = strconv.FormatInt(item.Added.Unix(), 10)
	}

	out := map[string]any{
		"item_id":        item.ItemID,
		"resolved_id":    item.ItemID,
		"given_url":      item.URL,
		"given_title":    item.Title,
		"resolved_url":   item.URL,
		"resolved_title": item.Title,
		"favorite":       flag(item.Favorite),
		"status":         flag(item.Archived),
		"time_added":     added,
		"time_updated":   added,
		"time_read":      "0",
		"time_favorited": "0",
		"sort_id":        sortID,
		"is_article":     "1",
		"is_index":       "0",
		"has_video":      "0",
		"has_image":      "0",
		"word_count":     "0",
		"lang":           "en",
	}

	if len(item.Tags) > 0 {
		tags := make(map[string]any, len(item.Tags))
		for _, name := range item.Tags {
			tags[name] = map[string]string{"item_id": item.ItemID, "tag": name}
		}
		out["tags"] = tags
	}

	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("X-Error", msg)
	w.WriteHeader(status)
}
