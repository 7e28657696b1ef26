package oauth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobeaver/beaver-connect/oauth"
)

func testRoutes() oauth.RouteTable {
	return oauth.RouteTable{
		"go": func(context.Context, oauth.Request) (*oauth.Redirect, error) {
			return &oauth.Redirect{Location: "&debug="}, nil
		},
		"drop": func(context.Context, oauth.Request) (*oauth.Redirect, error) {
			return nil, nil
		},
		"fail": func(context.Context, oauth.Request) (*oauth.Redirect, error) {
			return nil, errors.New("secret detail")
		},
		"echo": func(_ context.Context, req oauth.Request) (*oauth.Redirect, error) {
			return &oauth.Redirect{Location: "/done?form=" + req.Form.Get("action") + "&query=" + req.Query.Get("action")}, nil
		},
	}
}

func TestDispatcher(t *testing.T) {
	d := oauth.NewDispatcher(testRoutes(), nil)

	t.Run("redirect is written verbatim", func(t *testing.T) {
		w := httptest.NewRecorder()
		d.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin-post?action=go", nil))
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "&debug=", w.Header().Get("Location"))
	})

	t.Run("dropped request", func(t *testing.T) {
		w := httptest.NewRecorder()
		d.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin-post?action=drop", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Header().Get("Location"))
	})

	t.Run("unknown action", func(t *testing.T) {
		w := httptest.NewRecorder()
		d.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin-post?action=nope", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing action", func(t *testing.T) {
		w := httptest.NewRecorder()
		d.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin-post", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("handler error", func(t *testing.T) {
		w := httptest.NewRecorder()
		d.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin-post?action=fail", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "secret detail")
	})

	t.Run("posted action wins", func(t *testing.T) {
		form := url.Values{"action": {"echo"}}
		r := httptest.NewRequest(http.MethodPost, "/admin-post?action=go", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		w := httptest.NewRecorder()
		d.ServeHTTP(w, r)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/done?form=echo&query=go", w.Header().Get("Location"))
	})
}

func TestRouteTableMerge(t *testing.T) {
	table := oauth.RouteTable{}
	require.NoError(t, table.Merge(testRoutes()))
	assert.Equal(t, []string{"drop", "echo", "fail", "go"}, table.Actions())

	err := table.Merge(oauth.RouteTable{"zzz": nil, "go": nil})
	assert.ErrorIs(t, err, oauth.ErrDuplicateAction)
	assert.NotContains(t, table.Actions(), "zzz", "a failed merge adds nothing")
}

func TestMount(t *testing.T) {
	r := chi.NewRouter()
	oauth.Mount(r, "/admin-post", oauth.NewDispatcher(testRoutes(), nil))

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, "/admin-post?action=go", nil))
		assert.Equal(t, http.StatusFound, w.Code, method)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/admin-post?action=go", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
