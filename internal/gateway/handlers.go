package gateway

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tixmarket/gotix/internal/chain"
	"github.com/tixmarket/gotix/internal/ledger"
	"github.com/tixmarket/gotix/internal/market"
)

// handleSession describes the connected account and chain, what the
// wallet layer would otherwise tell the presentation layer.
func (s *Server) handleSession(c *gin.Context) {
	cfg := s.engine.Config()
	c.JSON(http.StatusOK, gin.H{
		"account":      s.engine.Account(),
		"accountShort": market.FormatAddress(s.engine.Account()),
		"chainId":      uint64(cfg.ChainID),
		"chain":        cfg.ChainID.String(),
		"marketplace":  cfg.Marketplace,
	})
}

type eventSummary struct {
	Name           string               `json:"name"`
	Address        string               `json:"address"`
	Details        *ledger.EventDetails `json:"details,omitempty"`
	Available      uint64               `json:"available"`
	ActiveListings int                  `json:"activeListings"`
	Resale         string               `json:"resale"`
	ResaleRange    *market.PriceRange   `json:"resaleRange,omitempty"`
}

// handleEvents renders the event catalog: configured collections with
// their on-chain details and the current resale price range.
func (s *Server) handleEvents(c *gin.Context) {
	cfg := s.engine.Config()
	out := make([]eventSummary, 0, len(cfg.Collections))
	for _, col := range cfg.Collections {
		summary := eventSummary{
			Name:    col.DisplayName,
			Address: col.Address.Hex(),
		}
		if details, err := s.engine.Ledger().EventDetails(c.Request.Context(), col.Address); err == nil {
			summary.Details = &details
			summary.Available = details.Available()
		} else {
			s.log.WithField("collection", col.DisplayName).WithError(err).Warn("event details read failed")
		}
		listings, err := s.engine.AggregateListings(c.Request.Context(), market.ListingFilter{Collection: &col.Address, ActiveOnly: true})
		if err != nil {
			s.fail(c, err)
			return
		}
		summary.ActiveListings = len(listings)
		r := market.ListingPriceRange(listings)
		summary.Resale = r.Display()
		summary.ResaleRange = r
		out = append(out, summary)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleEventListings(c *gin.Context) {
	collection, err := chain.ParseAddress(c.Param("address"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Kind: market.KindUnknownLedger, Error: err.Error()})
		return
	}
	listings, err := s.engine.EventListings(c.Request.Context(), collection)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listings)
}

func (s *Server) handleInventory(c *gin.Context) {
	owner, err := chain.ParseAddress(c.Param("owner"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Kind: market.KindUnknownLedger, Error: err.Error()})
		return
	}
	inv, err := s.engine.Inventory(c.Request.Context(), owner)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *Server) handleListings(c *gin.Context) {
	var filter market.ListingFilter
	if v := c.Query("seller"); v != "" {
		addr, err := chain.ParseAddress(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody{Kind: market.KindUnknownLedger, Error: err.Error()})
			return
		}
		filter.Seller = &addr
	}
	if v := c.Query("collection"); v != "" {
		addr, err := chain.ParseAddress(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody{Kind: market.KindUnknownLedger, Error: err.Error()})
			return
		}
		filter.Collection = &addr
	}
	filter.ActiveOnly = c.Query("active") == "true"

	listings, err := s.engine.AggregateListings(c.Request.Context(), filter)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listings)
}

func (s *Server) handleListing(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Kind: market.KindUnknownLedger, Error: "invalid listing id"})
		return
	}
	l, err := s.engine.Ledger().Listing(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorBody{Kind: market.KindUnknownLedger, Error: "listing not found"})
			return
		}
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

type approveRequest struct {
	Collection string `json:"collection" binding:"required"`
	TokenID    uint64 `json:"tokenId"`
}

// handleApprove is phase one of the sell flow.
func (s *Server) handleApprove(c *gin.Context) {
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Kind: market.KindUnknownLedger, Error: err.Error()})
		return
	}
	collection, err := chain.ParseAddress(req.Collection)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Kind: market.KindUnknownLedger, Error: err.Error()})
		return
	}
	if err := s.engine.AuthorizeTransfer(c.Request.Context(), collection, req.TokenID); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"approved": true})
}

type createListingRequest struct {
	Collection string `json:"collection" binding:"required"`
	TokenID    uint64 `json:"tokenId"`
	PriceEth   string `json:"priceEth" binding:"required"`
}

// handleCreateListing is phase two of the sell flow. It answers with
// the assigned listing id and the seller's refreshed inventory.
func (s *Server) handleCreateListing(c *gin.Context) {
	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Kind: market.KindUnknownLedger, Error: err.Error()})
		return
	}
	collection, err := chain.ParseAddress(req.Collection)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Kind: market.KindUnknownLedger, Error: err.Error()})
		return
	}
	priceWei, err := market.ParsePrice(req.PriceEth)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Kind: market.KindUnknownLedger, Error: "invalid price: " + err.Error()})
		return
	}

	listingID, err := s.engine.CreateListing(c.Request.Context(), collection, req.TokenID, priceWei)
	if err != nil {
		s.fail(c, err)
		return
	}
	inv, err := s.engine.Inventory(c.Request.Context(), s.engine.Account())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"listingId": listingID, "inventory": inv})
}

func (s *Server) handleBuyListing(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Kind: market.KindUnknownLedger, Error: "invalid listing id"})
		return
	}
	if err := s.engine.BuyListing(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	inv, err := s.engine.Inventory(c.Request.Context(), s.engine.Account())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bought": id, "inventory": inv})
}

func (s *Server) handleCancelListing(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Kind: market.KindUnknownLedger, Error: "invalid listing id"})
		return
	}
	if err := s.engine.CancelListing(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	inv, err := s.engine.Inventory(c.Request.Context(), s.engine.Account())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": id, "inventory": inv})
}
