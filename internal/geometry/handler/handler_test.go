package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masseutsendelse/internal/geometry"
	"masseutsendelse/internal/platform/metrics"
	audit "masseutsendelse/pkg/platform/audit"
	"masseutsendelse/pkg/platform/audit/publisher"
	auditmemory "masseutsendelse/pkg/platform/audit/store/memory"
	"masseutsendelse/pkg/testutil"
)

var drawing = strings.Join([]string{
	"0", "SECTION", "2", "ENTITIES",
	"0", "LWPOLYLINE", "8", "Eiendom", "90", "3", "70", "1",
	"10", "571000", "20", "6612000",
	"10", "571500", "20", "6612000",
	"10", "571500", "20", "6612500",
	"0", "ENDSEC", "0", "EOF",
}, "\n") + "\n"

type fixture struct {
	router  chi.Router
	metrics *metrics.Metrics
	store   *auditmemory.InMemoryStore
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	store := auditmemory.NewInMemoryStore()
	r := chi.NewRouter()
	New(slog.New(slog.NewTextHandler(io.Discard, nil)), m, publisher.NewPublisher(store)).Register(r)
	return fixture{router: r, metrics: m, store: store}
}

func TestHandleExtractRawBody(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/geometry/extract", strings.NewReader(drawing))
	req.Header.Set("Content-Type", "application/dxf")
	req = testutil.WithRequestID(req, "req-1")
	rr := testutil.DoRequest(f.router, req)

	testutil.AssertStatusOK(t, rr)
	resp := testutil.UnmarshalResponse[ExtractResponse](t, rr)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, []geometry.Coordinate{{571000, 6612000}, {571500, 6612000}, {571500, 6612500}}, resp.Polygons[0].Vertices)
	assert.Equal(t, "Eiendom", resp.Polygons[0].Metadata["layer"])
	assert.Equal(t, float64(1), promtest.ToFloat64(f.metrics.PolygonsExtracted))

	events, err := f.store.ListByRequest(context.Background(), "req-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventGeometryExtracted), events[0].Action)
	assert.Equal(t, "1", events[0].Attributes["polygons"])
}

func TestHandleExtractMultipart(t *testing.T) {
	f := newFixture(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(FileField, "omraade.dxf")
	require.NoError(t, err)
	_, err = part.Write([]byte(drawing))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/geometry/extract", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = testutil.WithRequestID(req, "req-2")
	rr := testutil.DoRequest(f.router, req)

	testutil.AssertStatusOK(t, rr)
	events, err := f.store.ListByRequest(context.Background(), "req-2")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "omraade.dxf", events[0].Attributes["file"])
}

func TestHandleExtractFailures(t *testing.T) {
	tests := []struct {
		name       string
		body       func(t *testing.T) (io.Reader, string)
		wantStatus int
		wantCode   string
		wantTitle  string
	}{
		{
			name:       "empty body",
			body:       func(*testing.T) (io.Reader, string) { return strings.NewReader("  \n"), "" },
			wantStatus: http.StatusBadRequest,
			wantCode:   "bad_request",
		},
		{
			name: "multipart without file field",
			body: func(t *testing.T) (io.Reader, string) {
				var b bytes.Buffer
				mw := multipart.NewWriter(&b)
				require.NoError(t, mw.WriteField("note", "x"))
				require.NoError(t, mw.Close())
				return &b, mw.FormDataContentType()
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "bad_request",
		},
		{
			name: "drawing without polygons",
			body: func(*testing.T) (io.Reader, string) {
				text := strings.Join([]string{
					"0", "SECTION", "2", "ENTITIES",
					"0", "LINE", "10", "0", "20", "0",
					"0", "ENDSEC", "0", "EOF",
				}, "\n")
				return strings.NewReader(text), ""
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "geometry",
			wantTitle:  "No polygons in file",
		},
		{
			name: "unreadable drawing",
			body: func(*testing.T) (io.Reader, string) {
				return strings.NewReader("0\nSECTION\n2\nENTITIES\n0\nLWPOLYLINE\nlayer\nEiendom\n0\nENDSEC\n0\nEOF\n"), ""
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "geometry",
			wantTitle:  "Could not read the file",
		},
		{
			name:       "drawing without entities",
			body:       func(*testing.T) (io.Reader, string) { return strings.NewReader("0\nSECTION\n2\nHEADER\n0\nENDSEC\n0\nEOF\n"), "" },
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "geometry",
			wantTitle:  "The file contains no shapes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			body, contentType := tt.body(t)
			req := httptest.NewRequest(http.MethodPost, "/geometry/extract", body)
			if contentType != "" {
				req.Header.Set("Content-Type", contentType)
			}
			rr := testutil.DoRequest(f.router, req)

			testutil.AssertStatus(t, rr, tt.wantStatus)
			resp := testutil.UnmarshalErrorResponse(t, rr)
			assert.Equal(t, tt.wantCode, resp["error"])
			if tt.wantTitle != "" {
				assert.Equal(t, tt.wantTitle, resp["error_title"])
			}

			recent, err := f.store.ListRecent(context.Background(), 0)
			require.NoError(t, err)
			assert.Empty(t, recent)
		})
	}
}
