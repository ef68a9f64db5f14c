package city

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ceyewan/cityweather/registry"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// sliceStore 内存实现，failAfter >= 0 时在产出该数量的元素后报错
type sliceStore struct {
	cities    []*City
	failAfter int
}

func newSliceStore(names ...string) *sliceStore {
	s := &sliceStore{failAfter: -1}
	for _, n := range names {
		s.cities = append(s.cities, &City{Name: n})
	}
	return s
}

func (s *sliceStore) StreamAll(context.Context) iter.Seq2[*City, error] {
	return func(yield func(*City, error) bool) {
		for i, c := range s.cities {
			if i == s.failAfter {
				yield(nil, errors.New("connection reset"))
				return
			}
			if !yield(c, nil) {
				return
			}
		}
		if s.failAfter == len(s.cities) {
			yield(nil, errors.New("connection reset"))
		}
	}
}

func (s *sliceStore) FindByName(_ context.Context, name string) (*City, error) {
	for _, c := range s.cities {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, nil
}

func (s *sliceStore) Create(_ context.Context, c *City) (*City, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if found, _ := s.FindByName(context.Background(), c.Name); found != nil {
		return nil, ErrDuplicateKey
	}
	s.cities = append(s.cities, c)
	return c, nil
}

func (s *sliceStore) DeleteByName(context.Context, string) error { return nil }
func (s *sliceStore) Close() error                              { return nil }

type fixedStatus registry.State

func (f fixedStatus) Status() registry.Status {
	return registry.Status{State: registry.State(f)}
}

func newTestRouter(store Store, cfg *CitiesConfig, status StatusReporter) *gin.Engine {
	r := gin.New()
	NewHandler(store, cfg, status).Register(r)
	return r
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_Hello(t *testing.T) {
	w := do(newTestRouter(newSliceStore(), nil, nil), http.MethodGet, "/hello", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hello from city-service", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}

func TestHandler_Health(t *testing.T) {
	w := do(newTestRouter(newSliceStore(), nil, fixedStatus(registry.StateFailed)), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","registration":"failed"}`, w.Body.String())

	w = do(newTestRouter(newSliceStore(), nil, nil), http.MethodGet, "/health", "")
	assert.JSONEq(t, `{"status":"ok","registration":"unregistered"}`, w.Body.String())
}

func TestHandler_ListPaginated(t *testing.T) {
	r := newTestRouter(newSliceStore("Paris", "Tokyo", "Lima"), &CitiesConfig{PageSize: 2}, nil)

	w := do(r, http.MethodGet, "/cities", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[[{"name":"Paris"},{"name":"Tokyo"}],[{"name":"Lima"}]]`, w.Body.String())
}

func TestHandler_ListPaginatedExactMultiple(t *testing.T) {
	r := newTestRouter(newSliceStore("Paris", "Tokyo"), &CitiesConfig{PageSize: 2}, nil)

	w := do(r, http.MethodGet, "/cities", "")
	assert.JSONEq(t, `[[{"name":"Paris"},{"name":"Tokyo"}]]`, w.Body.String())
}

func TestHandler_ListEmpty(t *testing.T) {
	for _, mode := range []string{ListModePaginated, ListModeAll} {
		t.Run(mode, func(t *testing.T) {
			w := do(newTestRouter(newSliceStore(), &CitiesConfig{ListMode: mode}, nil), http.MethodGet, "/cities", "")
			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `[]`, w.Body.String())
		})
	}
}

func TestHandler_ListAll(t *testing.T) {
	r := newTestRouter(newSliceStore("Paris", "Tokyo", "Lima"), &CitiesConfig{PageSize: 2, ListMode: ListModeAll}, nil)

	w := do(r, http.MethodGet, "/cities", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"name":"Paris"},{"name":"Tokyo"},{"name":"Lima"}]`, w.Body.String())
}

func TestHandler_ListFailsBeforeFirstPage(t *testing.T) {
	s := newSliceStore("Paris", "Tokyo")
	s.failAfter = 0

	w := do(newTestRouter(s, &CitiesConfig{PageSize: 2}, nil), http.MethodGet, "/cities", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestHandler_ListFailsMidStream(t *testing.T) {
	s := newSliceStore("Paris", "Tokyo", "Lima")
	s.failAfter = 2

	w := do(newTestRouter(s, &CitiesConfig{PageSize: 2}, nil), http.MethodGet, "/cities", "")
	// 已经开始写出，状态码无法再改
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, json.Valid(w.Body.Bytes()))
	assert.True(t, strings.HasPrefix(w.Body.String(), `[[{"name":"Paris"}`))
}

func TestHandler_PaginationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 40).Draw(t, "n")
		size := rapid.IntRange(1, 7).Draw(t, "size")

		all := make([]string, n)
		for i := range all {
			all[i] = "c" + strings.Repeat("x", i)
		}
		r := newTestRouter(newSliceStore(all...), &CitiesConfig{PageSize: size}, nil)
		w := do(r, http.MethodGet, "/cities", "")
		if w.Code != http.StatusOK {
			t.Fatalf("status %d", w.Code)
		}

		var pages [][]City
		if err := json.Unmarshal(w.Body.Bytes(), &pages); err != nil {
			t.Fatalf("invalid body %q: %v", w.Body.String(), err)
		}
		var flat []string
		for i, p := range pages {
			if len(p) == 0 || len(p) > size {
				t.Fatalf("page %d has %d elements", i, len(p))
			}
			if i < len(pages)-1 && len(p) != size {
				t.Fatalf("non-final page %d has %d elements", i, len(p))
			}
			for _, c := range p {
				flat = append(flat, c.Name)
			}
		}
		if len(flat) != n {
			t.Fatalf("got %d cities, want %d", len(flat), n)
		}
		for i := range flat {
			if flat[i] != all[i] {
				t.Fatalf("order differs at %d", i)
			}
		}
	})
}

func TestHandler_Create(t *testing.T) {
	r := newTestRouter(newSliceStore(), nil, nil)

	w := do(r, http.MethodPost, "/cities", `{"name":"New York","country":"US"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "/cities/New%20York", w.Header().Get("Location"))
	assert.JSONEq(t, `{"name":"New York","country":"US"}`, w.Body.String())

	w = do(r, http.MethodPost, "/cities", `{"name":"New York"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodGet, "/cities/New%20York", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"New York","country":"US"}`, w.Body.String())
}

func TestHandler_LocationIsFollowable(t *testing.T) {
	r := newTestRouter(newSliceStore(), nil, nil)

	for _, name := range []string{"New York", "São Paulo", "a?b", "50% Off"} {
		w := do(r, http.MethodPost, "/cities", `{"name":"`+name+`"}`)
		require.Equal(t, http.StatusCreated, w.Code, name)

		w = do(r, http.MethodGet, w.Header().Get("Location"), "")
		assert.Equal(t, http.StatusOK, w.Code, name)
		assert.JSONEq(t, `{"name":"`+name+`"}`, w.Body.String())
	}
}

func TestHandler_CreateBadRequest(t *testing.T) {
	r := newTestRouter(newSliceStore(), nil, nil)

	for _, body := range []string{`{"country":"US"}`, `{"name":""}`, `{"name":42}`, `{"name":"a/b"}`, `not json`, `["x"]`} {
		w := do(r, http.MethodPost, "/cities", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestHandler_GetMissing(t *testing.T) {
	w := do(newTestRouter(newSliceStore("Paris"), nil, nil), http.MethodGet, "/cities/Atlantis", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestHandler_Delete(t *testing.T) {
	w := do(newTestRouter(newSliceStore("Paris"), nil, nil), http.MethodDelete, "/cities/Atlantis", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestHandler_WithGormStore(t *testing.T) {
	s := newTestGormStore(t, 1)
	r := newTestRouter(s, &CitiesConfig{PageSize: 2}, nil)

	for _, n := range []string{"Paris", "Tokyo", "Lima"} {
		require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/cities", `{"name":"`+n+`"}`).Code)
	}

	w := do(r, http.MethodGet, "/cities", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[[{"name":"Paris"},{"name":"Tokyo"}],[{"name":"Lima"}]]`, w.Body.String())

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/cities/Tokyo", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/cities/Tokyo", "").Code)
}
