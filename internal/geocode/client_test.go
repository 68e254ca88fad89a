package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestResolveLabelSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("lat") != "3.139" || r.URL.Query().Get("lon") != "101.6869" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"display_name":"Jalan Ampang, Kuala Lumpur, Malaysia"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), nil, nil)
	label := c.ResolveLabel(context.Background(), 3.139, 101.6869)
	if label != "Jalan Ampang, Kuala Lumpur" {
		t.Fatalf("unexpected label: %q", label)
	}
}

func TestResolveLabelNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, nil, nil, nil)
	label := c.ResolveLabel(context.Background(), 1.2345, 103.6789)
	if !strings.Contains(label, "1.2345") || !strings.Contains(label, "103.6789") {
		t.Fatalf("expected coordinate fallback, got %q", label)
	}
}

func TestResolveLabelMalformedResponse(t *testing.T) {
	cases := map[string]func(w http.ResponseWriter){
		"bad json":   func(w http.ResponseWriter) { _, _ = w.Write([]byte(`{`)) },
		"empty name": func(w http.ResponseWriter) { _, _ = w.Write([]byte(`{"display_name":""}`)) },
		"only commas": func(w http.ResponseWriter) {
			_, _ = w.Write([]byte(`{"display_name":" , ,"}`))
		},
		"server error": func(w http.ResponseWriter) { w.WriteHeader(http.StatusBadGateway) },
	}
	for name, write := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { write(w) }))
			defer srv.Close()

			c := NewClient(srv.URL, srv.Client(), nil, nil)
			label := c.ResolveLabel(context.Background(), 1.2345, 103.6789)
			if label != "Location (1.2345, 103.6789)" {
				t.Fatalf("unexpected label: %q", label)
			}
		})
	}
}

func TestResolveLabelUsesCache(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"display_name":"Orchard Road, Singapore"}`))
	}))
	defer srv.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	c := NewClient(srv.URL, srv.Client(), rdb, nil)
	first := c.ResolveLabel(context.Background(), 1.3048, 103.8318)
	second := c.ResolveLabel(context.Background(), 1.3048, 103.8318)
	if first != "Orchard Road, Singapore" || second != first {
		t.Fatalf("unexpected labels: %q %q", first, second)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected one upstream call, got %d", calls)
	}
}

func TestResolveLabelFallbackNotCached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	c := NewClient(srv.URL, srv.Client(), rdb, nil)
	_ = c.ResolveLabel(context.Background(), 1.2345, 103.6789)
	if mr.Exists(cacheKey(1.2345, 103.6789)) {
		t.Fatalf("fallback label must not be cached")
	}
}

func TestResolveLabelCacheDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"display_name":"Makati"}`))
	}))
	defer srv.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()
	defer rdb.Close()

	c := NewClient(srv.URL, srv.Client(), rdb, nil)
	if label := c.ResolveLabel(context.Background(), 14.5547, 121.0244); label != "Makati" {
		t.Fatalf("unexpected label: %q", label)
	}
}

func TestShortLabel(t *testing.T) {
	if got := ShortLabel("A, B, C"); got != "A, B" {
		t.Fatalf("unexpected: %q", got)
	}
	if got := ShortLabel("Solo"); got != "Solo" {
		t.Fatalf("unexpected: %q", got)
	}
}
