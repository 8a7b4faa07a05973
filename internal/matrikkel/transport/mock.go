package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"time"

	"masseutsendelse/internal/matrikkel"
)

// Mock answers registry requests from a fixed fixture set, after waiting
// Latency. It stands in for the registry in development and demos.
type Mock struct {
	Latency time.Duration
}

func (m Mock) Send(ctx context.Context, req *matrikkel.Request, out any) error {
	if req == nil {
		return errors.New("transport: request cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return fail(categorizeTransportError(ctx, err), 0, req.URL, err)
	}
	if m.Latency > 0 {
		timer := time.NewTimer(m.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return fail(categorizeTransportError(ctx, ctx.Err()), 0, req.URL, ctx.Err())
		case <-timer.C:
		}
	}

	var response any
	switch endpoint(req.URL) {
	case matrikkel.PathUnits:
		response = matrikkel.UnitsResponse{Units: fixtureUnits(), Owners: fixtureOwners()}
	case matrikkel.PathStore:
		response = lookupFixtures(req.Body.Items)
	default:
		return fail(CategoryRejected, http.StatusNotFound, req.URL, fmt.Errorf("unknown endpoint %q", endpoint(req.URL)))
	}

	if out == nil {
		return nil
	}
	// Round-trip through JSON so callers see the same shapes as over HTTP.
	raw, err := json.Marshal(response)
	if err != nil {
		return fail(CategoryInternal, 0, req.URL, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fail(CategoryBadData, 0, req.URL, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// endpoint returns the last path segment of rawURL, unescaped.
func endpoint(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return path.Base(u.Path)
}

func lookupFixtures(items []any) []matrikkel.Record {
	byID := make(map[string]matrikkel.Record)
	for _, r := range append(fixtureUnits(), fixtureOwners()...) {
		if key, ok := matrikkel.IDKey(matrikkel.ValueOf(r[matrikkel.FieldID])); ok {
			byID[key] = r
		}
	}
	out := make([]matrikkel.Record, 0, len(items))
	for _, item := range items {
		key, ok := matrikkel.IDKey(matrikkel.ValueOf(item))
		if !ok {
			continue
		}
		if r, found := byID[key]; found {
			out = append(out, r)
		}
	}
	return out
}

func fixtureUnits() []matrikkel.Record {
	return []matrikkel.Record{
		{
			"id":        map[string]any{"value": 8101},
			"_type":     "Grunneiendom",
			"bruksnavn": "Nordre Haug",
			"matrikkelnummer": map[string]any{
				"kommunenummer": "3803",
				"gardsnummer":   12,
				"bruksnummer":   4,
			},
			"eierforhold": []any{
				map[string]any{"eierId": 9001, "andel": map[string]any{"teller": 1, "nevner": 2}},
				map[string]any{"eierId": 9002, "andel": map[string]any{"teller": 1, "nevner": 2}},
			},
		},
		{
			"id":        map[string]any{"value": 8102},
			"_type":     "Grunneiendom",
			"bruksnavn": "Søndre Haug",
			"matrikkelnummer": map[string]any{
				"kommunenummer": "3803",
				"gardsnummer":   12,
				"bruksnummer":   5,
			},
			"eierforhold": []any{
				map[string]any{"eierId": 9001, "andel": map[string]any{"teller": 1, "nevner": 1}},
			},
		},
	}
}

func fixtureOwners() []matrikkel.Record {
	return []matrikkel.Record{
		{
			"id":    map[string]any{"value": 9001},
			"_type": "Person",
			"navn":  "Ola Nordmann",
			"adresse": map[string]any{
				"adresselinje1": "Haugveien 1",
				"postnummer":    "3100",
				"poststed":      "Tønsberg",
			},
		},
		{
			"id":    map[string]any{"value": 9002},
			"_type": "Person",
			"navn":  "Kari Nordmann",
			"adresse": map[string]any{
				"adresselinje1": "Haugveien 2",
				"postnummer":    "3100",
				"poststed":      "Tønsberg",
			},
		},
	}
}
