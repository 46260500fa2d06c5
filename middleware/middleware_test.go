package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestChainOrder(t *testing.T) {
	var calls []string
	mk := func(name string) Middleware {
		return Func(func(req *http.Request, ext Extensions, next Next) (*http.Response, error) {
			calls = append(calls, name+":in")
			resp, err := next(req, ext)
			calls = append(calls, name+":out")
			return resp, err
		})
	}
	base := roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		calls = append(calls, "base")
		return &http.Response{StatusCode: http.StatusOK, Request: r}, nil
	})

	rt := NewRoundTripper(base, mk("a"), nil, mk("b"))
	req := httptest.NewRequest(http.MethodGet, "http://example.tld/", nil)
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Errorf("unexpected error: %s", err.Error())
		return
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status, want: 200, got: %d", resp.StatusCode)
	}

	want := "a:in,b:in,base,b:out,a:out"
	if got := strings.Join(calls, ","); got != want {
		t.Errorf("call order, want: %s, got: %s", want, got)
	}
}

func TestChainPassesExtensions(t *testing.T) {
	type key struct{}
	writer := Func(func(req *http.Request, ext Extensions, next Next) (*http.Response, error) {
		ext[key{}] = "value"
		return next(req, ext)
	})
	var got any
	reader := Func(func(req *http.Request, ext Extensions, next Next) (*http.Response, error) {
		got = ext[key{}]
		return next(req, ext)
	})
	base := roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("boom")
	})

	_, err := NewRoundTripper(base, writer, reader).RoundTrip(
		httptest.NewRequest(http.MethodGet, "http://example.tld/", nil))
	if err == nil || err.Error() != "boom" {
		t.Errorf("expected the base error, got: %v", err)
	}
	if got != "value" {
		t.Errorf("extension not propagated, got: %#v", got)
	}
}

func TestNewRoundTripperWithoutMiddlewares(t *testing.T) {
	base := roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return nil, nil
	})
	if _, ok := NewRoundTripper(base).(roundTripperFunc); !ok {
		t.Errorf("expected the base round tripper to be returned")
	}
	if NewRoundTripper(nil) != http.DefaultTransport {
		t.Errorf("expected the default transport")
	}
	if _, ok := NewRoundTripper(base, nil, nil).(roundTripperFunc); !ok {
		t.Errorf("expected the base round tripper when all the middlewares are nil")
	}
}

func TestNewClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	seen := 0
	counter := Func(func(req *http.Request, ext Extensions, next Next) (*http.Response, error) {
		seen++
		return next(req, ext)
	})
	c := NewClient(&http.Client{}, counter)
	resp, err := c.Get(server.URL)
	if err != nil {
		t.Errorf("unexpected client error: %s", err.Error())
		return
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("status, want: 202, got: %d", resp.StatusCode)
	}
	if seen != 1 {
		t.Errorf("middleware calls, want: 1, got: %d", seen)
	}
}
