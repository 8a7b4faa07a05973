package transport

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masseutsendelse/internal/geometry"
	"masseutsendelse/internal/matrikkel"
	dErrors "masseutsendelse/pkg/domain-errors"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func unitsRequest(t *testing.T, baseURL string) *matrikkel.Request {
	t.Helper()
	client, err := matrikkel.NewClient(matrikkel.Config{BaseURL: baseURL + "/", APIKey: "secret", ClientID: "masseutsendelse"})
	require.NoError(t, err)
	req, err := client.UnitsRequest(geometry.Polygon{Vertices: []geometry.Coordinate{{1, 2}, {3, 4}}}, 10,
		matrikkel.WithQuery(matrikkel.QueryParam{Key: "fast", Value: true}))
	require.NoError(t, err)
	return req
}

func TestHTTPSendForwardsRequest(t *testing.T) {
	var (
		gotMethod, gotPath, gotQuery, gotKey, gotType string
		gotBody                                       map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("X-API-KEY")
		gotType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"units":[{"bruksnavn":"A"}],"owners":[]}`))
	}))
	defer srv.Close()

	var resp matrikkel.UnitsResponse
	err := NewHTTP(time.Second, WithLogger(quietLogger())).Send(context.Background(), unitsRequest(t, srv.URL), &resp)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/matrikkelenheter", gotPath)
	assert.Equal(t, "fast=true", gotQuery)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, float64(10), gotBody["koordinatsystemKodeId"])
	assert.Equal(t, []any{[]any{float64(1), float64(2)}, []any{float64(3), float64(4)}}, gotBody["polygon"])
	assert.Equal(t, map[string]any{"klientIdentifikasjon": "masseutsendelse"}, gotBody["matrikkelContext"])
	assert.NotContains(t, gotBody, "items")

	require.Len(t, resp.Units, 1)
	assert.Equal(t, "A", resp.Units[0]["bruksnavn"])
	assert.NotNil(t, resp.Owners)
}

func TestHTTPSendFailures(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantCategory Category
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"message":"boom"}`, wantCategory: CategoryOutage},
		{name: "bad gateway", status: http.StatusBadGateway, wantCategory: CategoryOutage},
		{name: "gateway timeout", status: http.StatusGatewayTimeout, wantCategory: CategoryTimeout},
		{name: "unauthorized", status: http.StatusUnauthorized, wantCategory: CategoryAuthentication},
		{name: "forbidden", status: http.StatusForbidden, wantCategory: CategoryAuthentication},
		{name: "rate limited", status: http.StatusTooManyRequests, wantCategory: CategoryRateLimited},
		{name: "bad request", status: http.StatusBadRequest, body: `{"message":"polygon"}`, wantCategory: CategoryRejected},
		{name: "malformed json", status: http.StatusOK, body: `{"units":`, wantCategory: CategoryBadData},
		{name: "empty body", status: http.StatusOK, body: "", wantCategory: CategoryBadData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			var resp matrikkel.UnitsResponse
			err := NewHTTP(time.Second, WithLogger(quietLogger())).Send(context.Background(), unitsRequest(t, srv.URL), &resp)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeUpstream))
			assert.Equal(t, tt.wantCategory, CategoryOf(err))

			de, ok := dErrors.From(err)
			require.True(t, ok)
			assert.Equal(t, "Kunne ikke hente data fra matrikkelen", de.Title)

			var failure *Failure
			require.ErrorAs(t, err, &failure)
			assert.Equal(t, tt.status, failure.StatusCode)
		})
	}
}

func TestHTTPSendTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	err := NewHTTP(50*time.Millisecond, WithLogger(quietLogger())).Send(context.Background(), unitsRequest(t, srv.URL), nil)
	require.Error(t, err)
	assert.Equal(t, CategoryTimeout, CategoryOf(err))
}

func TestHTTPSendUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewHTTP(time.Second, WithLogger(quietLogger())).Send(context.Background(), unitsRequest(t, url), nil)
	require.Error(t, err)
	assert.Equal(t, CategoryOutage, CategoryOf(err))
}

func TestHTTPSendNilOutDiscardsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	err := NewHTTP(time.Second).Send(context.Background(), unitsRequest(t, srv.URL), nil)
	assert.NoError(t, err)
}

func TestCategoryOfForeignError(t *testing.T) {
	assert.Equal(t, CategoryInternal, CategoryOf(assert.AnError))
	assert.Equal(t, CategoryInternal, CategoryOf(nil))
}
