package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "masseutsendelse/pkg/platform/audit"
	"masseutsendelse/pkg/platform/audit/publisher"
	auditmemory "masseutsendelse/pkg/platform/audit/store/memory"
	"masseutsendelse/pkg/requestcontext"
	"masseutsendelse/pkg/testutil"
)

type failingLister struct{}

func (failingLister) List(context.Context, string) ([]audit.Event, error) {
	return nil, errors.New("connection refused")
}

func (failingLister) ListRecent(context.Context, int) ([]audit.Event, error) {
	return nil, errors.New("connection refused")
}

func newRouter(lister Lister) chi.Router {
	r := chi.NewRouter()
	New(lister, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func TestHandleListByRequest(t *testing.T) {
	pub := publisher.NewPublisher(auditmemory.NewInMemoryStore())
	ctx := context.Background()
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, pub.Emit(ctx, audit.Event{
		Action: string(audit.EventGeometryExtracted), RequestID: "req-1", Timestamp: at, Outcome: audit.OutcomeSuccess,
	}))
	require.NoError(t, pub.Emit(ctx, audit.Event{
		Action: string(audit.EventOwnersResolved), RequestID: "req-1", Timestamp: at.Add(time.Second),
		ClientID: "masseutsendelse", Outcome: audit.OutcomeSuccess, Attributes: map[string]string{"owners": "2"},
	}))
	require.NoError(t, pub.Emit(ctx, audit.Event{Action: string(audit.EventOwnersFailed), RequestID: "req-2"}))

	rr := testutil.DoRequest(newRouter(pub), testutil.NewRequest(t, http.MethodGet, "/audit/requests/req-1"))

	testutil.AssertStatusOK(t, rr)
	resp := testutil.UnmarshalResponse[ListResponse](t, rr)
	require.Len(t, resp.Events, 2)
	assert.Equal(t, "geometry_extracted", resp.Events[0].Action)
	assert.Equal(t, "operations", resp.Events[0].Category)
	assert.Equal(t, "matrikkel_lookup", resp.Events[1].Action)
	assert.Equal(t, "compliance", resp.Events[1].Category)
	assert.Equal(t, "2", resp.Events[1].Attributes["owners"])
}

func TestHandleListByRequestUnknownIsEmpty(t *testing.T) {
	pub := publisher.NewPublisher(auditmemory.NewInMemoryStore())
	rr := testutil.DoRequest(newRouter(pub), testutil.NewRequest(t, http.MethodGet, "/audit/requests/none"))

	testutil.AssertStatusOK(t, rr)
	resp := testutil.UnmarshalResponse[ListResponse](t, rr)
	assert.NotNil(t, resp.Events)
	assert.Empty(t, resp.Events)
}

func TestHandleListByRequestStoreFailure(t *testing.T) {
	rr := testutil.DoRequest(newRouter(failingLister{}), testutil.NewRequest(t, http.MethodGet, "/audit/requests/req-1"))
	testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, "internal_error")
}

func TestHandleListRecent(t *testing.T) {
	pub := publisher.NewPublisher(auditmemory.NewInMemoryStore())
	ctx := requestcontext.WithClientMetadata(context.Background(), "10.0.0.7",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:126.0) Gecko/20100101 Firefox/126.0")
	for _, id := range []string{"req-1", "req-2", "req-3"} {
		require.NoError(t, pub.Emit(ctx, audit.Event{Action: string(audit.EventOwnersResolved), RequestID: id}))
	}

	rr := testutil.DoRequest(newRouter(pub), testutil.NewRequest(t, http.MethodGet, "/audit/recent?limit=2"))

	testutil.AssertStatusOK(t, rr)
	resp := testutil.UnmarshalResponse[ListResponse](t, rr)
	require.Len(t, resp.Events, 2)
	assert.Equal(t, "req-3", resp.Events[0].RequestID)
	assert.Equal(t, "req-2", resp.Events[1].RequestID)
	assert.Equal(t, "10.0.0.7", resp.Events[0].ClientIP)
	assert.Equal(t, "Firefox 126.0", resp.Events[0].Browser)
	assert.Equal(t, "Windows 10", resp.Events[0].OS)
}

func TestHandleListRecentDefaultLimit(t *testing.T) {
	pub := publisher.NewPublisher(auditmemory.NewInMemoryStore())
	for range defaultRecentLimit + 5 {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: "x", RequestID: "req"}))
	}

	rr := testutil.DoRequest(newRouter(pub), testutil.NewRequest(t, http.MethodGet, "/audit/recent"))

	testutil.AssertStatusOK(t, rr)
	resp := testutil.UnmarshalResponse[ListResponse](t, rr)
	assert.Len(t, resp.Events, defaultRecentLimit)
}

func TestHandleListRecentRejectsBadLimit(t *testing.T) {
	pub := publisher.NewPublisher(auditmemory.NewInMemoryStore())
	for _, limit := range []string{"0", "-3", "ten", "501"} {
		rr := testutil.DoRequest(newRouter(pub), testutil.NewRequest(t, http.MethodGet, "/audit/recent?limit="+limit))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation")
	}
}

func TestHandleListRecentStoreFailure(t *testing.T) {
	rr := testutil.DoRequest(newRouter(failingLister{}), testutil.NewRequest(t, http.MethodGet, "/audit/recent"))
	testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, "internal_error")
}
