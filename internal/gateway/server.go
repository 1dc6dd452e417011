// Package gateway exposes the reconciliation engine to the
// presentation layer as a small JSON API. The gateway holds no state
// of its own: every response is computed from fresh ledger reads, and
// every mutating handler re-aggregates before answering so the client
// never sees a view that predates its own operation.
package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tixmarket/gotix/internal/market"
)

// Server wraps one engine session behind HTTP.
type Server struct {
	engine *market.Engine
	log    *logrus.Entry
}

// New builds a server over an engine.
func New(engine *market.Engine) *Server {
	return &Server{
		engine: engine,
		log:    logrus.WithField("component", "gateway"),
	}
}

// Router builds the gin handler.
func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := r.Group("/api")
	api.GET("/session", s.handleSession)

	api.GET("/events", s.handleEvents)
	api.GET("/events/:address/listings", s.handleEventListings)

	api.GET("/inventory/:owner", s.handleInventory)

	api.GET("/listings", s.handleListings)
	api.GET("/listings/:id", s.handleListing)
	api.POST("/listings", s.handleCreateListing)
	api.POST("/listings/:id/buy", s.handleBuyListing)
	api.POST("/listings/:id/cancel", s.handleCancelListing)

	api.POST("/approvals", s.handleApprove)

	return r
}

// requestID tags every request so gateway log lines can be correlated
// with the client's report.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Set("requestID", id)
		c.Next()
	}
}

// errorBody is the uniform failure payload: the classified kind plus
// the raw message, so the client can distinguish "you said no" from
// "the listing is gone".
type errorBody struct {
	Kind  market.ErrorKind `json:"kind"`
	Error string           `json:"error"`
}

func (s *Server) fail(c *gin.Context, err error) {
	kind := market.Classify(err)
	s.log.WithFields(logrus.Fields{
		"requestID": c.GetString("requestID"),
		"kind":      kind,
	}).WithError(err).Warn("request failed")
	c.JSON(statusFor(kind), errorBody{Kind: kind, Error: err.Error()})
}

func statusFor(kind market.ErrorKind) int {
	switch kind {
	case market.KindUserRejected:
		return http.StatusBadRequest
	case market.KindInsufficientFunds:
		return http.StatusPaymentRequired
	case market.KindStaleListing, market.KindSelfTrade:
		return http.StatusConflict
	case market.KindUnauthorized:
		return http.StatusForbidden
	case market.KindAmbiguousResult:
		// The operation may well have succeeded on-chain; 202 tells
		// the client to re-aggregate rather than retry.
		return http.StatusAccepted
	case market.KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
