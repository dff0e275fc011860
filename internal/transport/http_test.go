package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDoSuccess(t *testing.T) {
	var gotAuth, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[]}`))
	}))
	defer srv.Close()

	tp := NewHTTP()
	resp, err := tp.Do(context.Background(), &Request{
		ProviderID: "p1",
		Endpoint:   srv.URL + "/v1/models",
		Headers:    map[string]string{"Authorization": "Bearer test-key"},
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if !resp.Success {
		t.Errorf("Do() success = false, want true")
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Do() status = %d, want 200", resp.StatusCode)
	}
	if string(resp.Data) != `{"object":"list","data":[]}` {
		t.Errorf("Do() data = %s", resp.Data)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("request auth header = %q", gotAuth)
	}
	if gotUA != "provider-gateway" {
		t.Errorf("request user agent = %q", gotUA)
	}
}

func TestDoUpstreamFailureEnvelope(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantError  string
	}{
		{
			name:      "nested error message",
			status:    http.StatusUnauthorized,
			body:      `{"error":{"message":"Incorrect API key provided"}}`,
			wantError: "Incorrect API key provided",
		},
		{
			name:      "flat error string",
			status:    http.StatusTooManyRequests,
			body:      `{"error":"rate limited"}`,
			wantError: "rate limited",
		},
		{
			name:      "top level message",
			status:    http.StatusBadRequest,
			body:      `{"message":"model not found"}`,
			wantError: "model not found",
		},
		{
			name:      "unparseable body",
			status:    http.StatusBadGateway,
			body:      `<html>bad gateway</html>`,
			wantError: "upstream returned status 502",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			resp, err := NewHTTP().Do(context.Background(), &Request{
				ProviderID: "p1",
				Endpoint:   srv.URL,
			})
			if err != nil {
				t.Fatalf("Do() error = %v, want envelope", err)
			}
			if resp.Success {
				t.Error("Do() success = true, want false")
			}
			if resp.StatusCode != tt.status {
				t.Errorf("Do() status = %d, want %d", resp.StatusCode, tt.status)
			}
			if resp.Error != tt.wantError {
				t.Errorf("Do() error message = %q, want %q", resp.Error, tt.wantError)
			}
		})
	}
}

func TestDoMethodDefaultsToGet(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if _, err := NewHTTP().Do(context.Background(), &Request{ProviderID: "p1", Endpoint: srv.URL}); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if gotMethod != http.MethodGet {
		t.Errorf("method = %q, want GET", gotMethod)
	}
}

func TestDoNetworkError(t *testing.T) {
	tp := NewHTTP()
	_, err := tp.Do(context.Background(), &Request{
		ProviderID: "p1",
		Endpoint:   "http://127.0.0.1:1", // nothing listens here
	})
	if err == nil {
		t.Fatal("Do() error = nil, want network error")
	}
	if IsRestricted(err) {
		t.Errorf("plain connection refusal classified as restricted: %v", err)
	}
}

type restrictedRoundTripper struct{}

func (restrictedRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("proxyconnect tcp: dial refused, forbidden by policy")
}

func TestDoRestrictedNetworkError(t *testing.T) {
	tp := NewHTTP(WithHTTPClient(&http.Client{Transport: restrictedRoundTripper{}}))
	_, err := tp.Do(context.Background(), &Request{
		ProviderID: "p1",
		Endpoint:   "https://api.example.com/v1/models",
	})
	if err == nil {
		t.Fatal("Do() error = nil, want restricted error")
	}
	if !IsRestricted(err) {
		t.Errorf("Do() error = %v, want RestrictedError", err)
	}

	var re *RestrictedError
	if !errors.As(err, &re) || re.ProviderID != "p1" {
		t.Errorf("RestrictedError not bound to provider: %v", err)
	}
}

func TestDoContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewHTTP().Do(ctx, &Request{ProviderID: "p1", Endpoint: srv.URL}); err == nil {
		t.Fatal("Do() error = nil, want context error")
	}
}
