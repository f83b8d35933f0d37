package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoTickGate/tickgate/internal/feed"
	"github.com/GoTickGate/tickgate/internal/nbbo"
	"github.com/GoTickGate/tickgate/internal/pkg/apperrors"
)

// QuoteReader is the cache view the status API reads from.
type QuoteReader interface {
	Lookup(symbol string) (nbbo.Quote, bool)
	Symbols() []string
}

// StatusHandler exposes the supervisor and NBBO state over HTTP.
type StatusHandler struct {
	sup    *feed.Supervisor
	quotes QuoteReader
}

func NewStatusHandler(sup *feed.Supervisor, quotes QuoteReader) *StatusHandler {
	return &StatusHandler{sup: sup, quotes: quotes}
}

func (h *StatusHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "tickgate",
	})
}

// Feeds reports the supervisor lifecycle state and the registered feed IDs.
func (h *StatusHandler) Feeds(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state": h.sup.State().String(),
		"feeds": h.sup.FeedIDs(),
	})
}

// NBBO returns the latest aggregate for one symbol.
func (h *StatusHandler) NBBO(c *gin.Context) {
	symbol := c.Param("symbol")
	if h.quotes == nil {
		c.Error(apperrors.NewNotFound("nbbo aggregation is disabled"))
		return
	}
	q, ok := h.quotes.Lookup(symbol)
	if !ok {
		c.Error(apperrors.NewNotFound("no quote for symbol " + symbol))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"symbol":     q.Symbol,
		"bid_price":  q.BidPrice.String(),
		"bid_size":   q.BidSize.String(),
		"bid_source": q.BidSource,
		"ask_price":  q.AskPrice.String(),
		"ask_size":   q.AskSize.String(),
		"ask_source": q.AskSource,
		"timestamp":  q.Timestamp,
	})
}

// Symbols lists every symbol with a cached aggregate.
func (h *StatusHandler) Symbols(c *gin.Context) {
	symbols := []string{}
	if h.quotes != nil {
		symbols = h.quotes.Symbols()
	}
	c.JSON(http.StatusOK, gin.H{"symbols": symbols})
}
