// Package clienttest - поддельный сервис сокращения ссылок в памяти для тестов.
// Реализует тот же HTTP-контракт, что и настоящий сервис, и позволяет
// подменять ответы ошибками и задерживать отдельные запросы.
package clienttest

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sol1corejz/linkly/internal/client"
	"github.com/sol1corejz/linkly/internal/models"
)

type failure struct {
	status int
	body   string
}

// Server - httptest-сервер с хранилищем ссылок в памяти.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	bodyField models.BodyField
	links     map[string]models.LinkRecord
	order     []string
	seq       int
	calls     map[string]int
	failures  map[string]failure
	holds     map[string][]chan struct{}
	now       func() time.Time
}

// NewServer запускает сервер и останавливает его по завершении теста.
func NewServer(t testing.TB) *Server {
	s := &Server{
		bodyField: models.BodyFieldOriginalURL,
		links:     make(map[string]models.LinkRecord),
		calls:     make(map[string]int),
		failures:  make(map[string]failure),
		holds:     make(map[string][]chan struct{}),
		now:       time.Now,
	}

	r := chi.NewRouter()
	r.Use(s.intercept)
	r.Post("/shorten", s.handleCreate)
	r.Get("/shorten", s.handleList)
	r.Get("/shorten/{code}", s.handleGet)
	r.Put("/shorten/{code}", s.handleUpdate)
	r.Delete("/shorten/{code}", s.handleDelete)
	r.Get("/shorten/{code}/stats", s.handleStats)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Client возвращает настроенный на сервер клиент.
func (s *Server) Client(t testing.TB, opts ...client.Option) *client.Client {
	t.Helper()
	s.mu.Lock()
	field := s.bodyField
	s.mu.Unlock()

	opts = append([]client.Option{
		client.WithHTTPClient(s.Server.Client()),
		client.WithBodyField(field),
	}, opts...)
	c, err := client.New(s.URL, opts...)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	return c
}

// SetBodyField задаёт поле с URL, которое сервер ждёт в теле запроса.
func (s *Server) SetBodyField(f models.BodyField) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodyField = f
}

// Seed добавляет записи в хранилище.
func (s *Server) Seed(recs ...models.LinkRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		s.seq++
		if rec.ID == "" {
			rec.ID = strconv.Itoa(s.seq)
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = s.now()
		}
		if rec.UpdatedAt.IsZero() {
			rec.UpdatedAt = rec.CreatedAt
		}
		if _, ok := s.links[rec.ShortCode]; !ok {
			s.order = append(s.order, rec.ShortCode)
		}
		s.links[rec.ShortCode] = rec
	}
}

// Link возвращает запись из хранилища.
func (s *Server) Link(code string) (models.LinkRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.links[code]
	return rec, ok
}

// Fail заставляет все запросы с данным методом отвечать статусом status
// и телом body, пока не будет вызван Recover.
func (s *Server) Fail(method string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = failure{status: status, body: body}
}

// Recover отменяет Fail для метода.
func (s *Server) Recover(method string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, method)
}

// Hold задерживает следующий запрос с данным методом до вызова release.
func (s *Server) Hold(method string) (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.holds[method] = append(s.holds[method], gate)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { close(gate) })
	}
}

// Calls возвращает число запросов с данным методом.
func (s *Server) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

func (s *Server) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.Method]++
		var gate chan struct{}
		if q := s.holds[r.Method]; len(q) > 0 {
			gate, s.holds[r.Method] = q[0], q[1:]
		}
		s.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}

		s.mu.Lock()
		f, failing := s.failures[r.Method]
		s.mu.Unlock()
		if failing {
			w.WriteHeader(f.status)
			w.Write([]byte(f.body))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) decodeURL(r *http.Request) string {
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return body[string(s.bodyField)]
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	target := s.decodeURL(r)
	if target == "" {
		writeMessage(w, http.StatusBadRequest, "URL is required")
		return
	}

	s.mu.Lock()
	s.seq++
	now := s.now()
	rec := models.LinkRecord{
		ID:          strconv.Itoa(s.seq),
		ShortCode:   generateShortID(),
		OriginalURL: target,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.links[rec.ShortCode] = rec
	s.order = append(s.order, rec.ShortCode)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	recs := make([]models.LinkRecord, 0, len(s.order))
	for _, code := range s.order {
		recs = append(recs, s.links[code])
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	s.mu.Lock()
	rec, ok := s.links[code]
	if ok {
		rec.AccessCount++
		s.links[code] = rec
	}
	s.mu.Unlock()

	if !ok {
		writeMessage(w, http.StatusNotFound, "Short URL not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	target := s.decodeURL(r)
	if target == "" {
		writeMessage(w, http.StatusBadRequest, "URL is required")
		return
	}

	s.mu.Lock()
	rec, ok := s.links[code]
	if ok {
		rec.OriginalURL = target
		rec.UpdatedAt = s.now()
		s.links[code] = rec
	}
	s.mu.Unlock()

	if !ok {
		writeMessage(w, http.StatusNotFound, "Short URL not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	s.mu.Lock()
	_, ok := s.links[code]
	if ok {
		delete(s.links, code)
		for i, c := range s.order {
			if c == code {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()

	if !ok {
		writeMessage(w, http.StatusNotFound, "Short URL not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	s.mu.Lock()
	rec, ok := s.links[code]
	s.mu.Unlock()

	if !ok {
		writeMessage(w, http.StatusNotFound, "Short URL not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func generateShortID() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
