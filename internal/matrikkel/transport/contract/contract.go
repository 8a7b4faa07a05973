// Package contract holds behaviour every registry Transport must show,
// plus an HTTP fixture registry to run it against.
package contract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"masseutsendelse/internal/geometry"
	"masseutsendelse/internal/matrikkel"
	"masseutsendelse/internal/matrikkel/transport"
	dErrors "masseutsendelse/pkg/domain-errors"
)

// Area is the search polygon used by the contract checks.
var Area = geometry.Polygon{
	Vertices: []geometry.Coordinate{{571000, 6612000}, {571500, 6612000}, {571500, 6612500}, {571000, 6612500}},
	Metadata: map[string]any{"type": geometry.PolygonEntityType},
}

// Suite runs the transport contract against one implementation. Client
// decides where requests are addressed.
type Suite struct {
	Transport transport.Transport
	Client    *matrikkel.Client
}

// Run executes every contract check as a subtest.
func (s *Suite) Run(t *testing.T) {
	t.Run("units lookup returns a consistent unit and owner pair", func(t *testing.T) {
		resp := s.units(t)
		if len(resp.Units) == 0 {
			t.Fatal("expected at least one unit")
		}
		if len(resp.Owners) == 0 {
			t.Fatal("expected at least one owner")
		}
		records, err := matrikkel.ProjectOwnerCentric(resp.Units, resp.Owners)
		if err != nil {
			t.Fatalf("response does not project: %v", err)
		}
		for _, r := range records {
			if _, wrapped := r[matrikkel.FieldID].(map[string]any); wrapped {
				t.Errorf("owner id %v was not flattened", r[matrikkel.FieldID])
			}
		}
	})

	t.Run("store returns only the requested records", func(t *testing.T) {
		resp := s.units(t)
		want := resp.Units[0][matrikkel.FieldID]

		req, err := s.Client.StoreRequest([]any{want}, 10)
		if err != nil {
			t.Fatalf("build store request: %v", err)
		}
		var items []matrikkel.Record
		if err := s.Transport.Send(context.Background(), req, &items); err != nil {
			t.Fatalf("store call failed: %v", err)
		}
		if len(items) != 1 {
			t.Fatalf("expected 1 record, got %d", len(items))
		}
		got := matrikkel.ValueOf(items[0][matrikkel.FieldID])
		if got != matrikkel.ValueOf(want) {
			t.Errorf("expected id %v, got %v", matrikkel.ValueOf(want), got)
		}
	})

	t.Run("canceled context fails as upstream error", func(t *testing.T) {
		req, err := s.Client.UnitsRequest(Area, 10)
		if err != nil {
			t.Fatalf("build units request: %v", err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err = s.Transport.Send(ctx, req, &matrikkel.UnitsResponse{})
		if err == nil {
			t.Fatal("expected error but got none")
		}
		if !dErrors.HasCode(err, dErrors.CodeUpstream) {
			t.Errorf("expected upstream error, got %v", err)
		}
		if category := transport.CategoryOf(err); category != transport.CategoryCanceled {
			t.Errorf("expected category %s, got %s", transport.CategoryCanceled, category)
		}
	})
}

func (s *Suite) units(t *testing.T) matrikkel.UnitsResponse {
	t.Helper()
	req, err := s.Client.UnitsRequest(Area, 10)
	if err != nil {
		t.Fatalf("build units request: %v", err)
	}
	var resp matrikkel.UnitsResponse
	if err := s.Transport.Send(context.Background(), req, &resp); err != nil {
		t.Fatalf("units call failed: %v", err)
	}
	return resp
}

// FixtureServer serves the fixture registry over HTTP. Requests without the
// expected API key are answered with 401 when apiKey is set.
func FixtureServer(t *testing.T, apiKey string) *httptest.Server {
	t.Helper()
	fixtures := transport.Mock{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if apiKey != "" && r.Header.Get("X-API-KEY") != apiKey {
			http.Error(w, `{"message":"invalid api key"}`, http.StatusUnauthorized)
			return
		}
		var body matrikkel.RequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, `{"message":"invalid body"}`, http.StatusBadRequest)
			return
		}
		if body.MatrikkelContext.KlientIdentifikasjon == "" {
			http.Error(w, `{"message":"klientIdentifikasjon missing"}`, http.StatusBadRequest)
			return
		}

		var out any
		req := &matrikkel.Request{Method: r.Method, URL: r.URL.String(), Body: body}
		if err := fixtures.Send(r.Context(), req, &out); err != nil {
			http.Error(w, `{"message":"unknown endpoint"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}))
	t.Cleanup(srv.Close)
	return srv
}
