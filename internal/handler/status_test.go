package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoTickGate/tickgate/internal/feed"
	"github.com/GoTickGate/tickgate/internal/middleware"
	"github.com/GoTickGate/tickgate/internal/nbbo"
)

type stubFeed struct{ id string }

func (f stubFeed) ID() string { return f.id }
func (f stubFeed) Run(ctx context.Context, term *feed.Termination) error {
	<-term.Done()
	return nil
}
func (f stubFeed) Shutdown(ctx context.Context) error { return nil }

type stubQuotes map[string]nbbo.Quote

func (s stubQuotes) Lookup(symbol string) (nbbo.Quote, bool) {
	q, ok := s[symbol]
	return q, ok
}

func (s stubQuotes) Symbols() []string {
	out := make([]string, 0, len(s))
	for sym := range s {
		out = append(out, sym)
	}
	return out
}

func newTestRouter(sup *feed.Supervisor, quotes QuoteReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler())

	h := NewStatusHandler(sup, quotes)
	r.GET("/health", h.Health)
	r.GET("/v1/feeds", h.Feeds)
	r.GET("/v1/nbbo", h.Symbols)
	r.GET("/v1/nbbo/:symbol", h.NBBO)
	return r
}

func doGet(t *testing.T, r *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHealth(t *testing.T) {
	r := newTestRouter(feed.New(nil), nil)
	w, body := doGet(t, r, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "tickgate", body["service"])
}

func TestFeeds(t *testing.T) {
	sup := feed.New(nil)
	sup.Register(stubFeed{id: "coinbase"})
	sup.Register(stubFeed{id: "okx"})

	r := newTestRouter(sup, nil)
	w, body := doGet(t, r, "/v1/feeds")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "idle", body["state"])
	assert.Equal(t, []any{"coinbase", "okx"}, body["feeds"])
}

func TestNBBOFound(t *testing.T) {
	quotes := stubQuotes{
		"BTC-USD": {
			Symbol:    "BTC-USD",
			BidPrice:  decimal.RequireFromString("50000.1"),
			BidSize:   decimal.RequireFromString("1.2"),
			BidSource: "okx",
			AskPrice:  decimal.RequireFromString("50001.5"),
			AskSize:   decimal.RequireFromString("0.8"),
			AskSource: "coinbase",
		},
	}

	r := newTestRouter(feed.New(nil), quotes)
	w, body := doGet(t, r, "/v1/nbbo/BTC-USD")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "50000.1", body["bid_price"])
	assert.Equal(t, "okx", body["bid_source"])
	assert.Equal(t, "50001.5", body["ask_price"])
	assert.Equal(t, "coinbase", body["ask_source"])
}

func TestNBBOUnknownSymbol(t *testing.T) {
	r := newTestRouter(feed.New(nil), stubQuotes{})
	w, body := doGet(t, r, "/v1/nbbo/NOPE")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestNBBODisabled(t *testing.T) {
	r := newTestRouter(feed.New(nil), nil)
	w, body := doGet(t, r, "/v1/nbbo/BTC-USD")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", body["code"])
}
