package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mbd888/bidguard/internal/forensiq"
	"github.com/mbd888/bidguard/internal/logging"
	"github.com/mbd888/bidguard/internal/metrics"
	"github.com/mbd888/bidguard/internal/validation"
)

// CheckResponse is returned by /v1/check.
type CheckResponse struct {
	// Bid is the pipeline decision: bid on Clear, skip on Flagged, and
	// follow the fail-open policy on Unavailable.
	Bid    bool             `json:"bid"`
	Result *forensiq.Result `json:"result"`
}

// StatsResponse is returned by /v1/stats and /v1/maintenance.
type StatsResponse struct {
	Provider string `json:"provider"`
	forensiq.StatsSnapshot
	InFlight        int64  `json:"inFlight"`
	Circuit         string `json:"circuit"`
	LastMaintenance string `json:"lastMaintenance,omitempty"`
}

func (s *Server) checkQueryHandler(c *gin.Context) {
	s.check(c, forensiq.Request{
		RequestType:  c.Query("rt"),
		ClientIP:     c.Query("ip"),
		PublisherURL: c.Query("url"),
		UserAgent:    c.Query("ua"),
		SellerDomain: c.Query("seller"),
		CreativeID:   c.Query("crid"),
	})
}

func (s *Server) checkBodyHandler(c *gin.Context) {
	var req forensiq.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}
	s.check(c, req)
}

func (s *Server) check(c *gin.Context, req forensiq.Request) {
	if errs := validation.Validate(
		validation.MaxLength("ip", req.ClientIP, validation.MaxFieldLength),
		validation.MaxLength("seller", req.SellerDomain, validation.MaxFieldLength),
		validation.MaxLength("url", req.PublisherURL, validation.MaxFieldLength),
		validation.MaxLength("ua", req.UserAgent, validation.MaxFieldLength),
		validation.MaxLength("crid", req.CreativeID, validation.MaxFieldLength),
		validation.MaxLength("rt", req.RequestType, validation.MaxFieldLength),
	); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": errs.Error(),
			"details": errs,
		})
		return
	}

	res, err := s.client.Evaluate(c.Request.Context(), req)
	if err != nil {
		var mf *forensiq.MissingFieldError
		if errors.As(err, &mf) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "missing_field",
				"field":   mf.Field,
				"message": err.Error(),
			})
			return
		}
		logging.L(c.Request.Context()).Error("fraud check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "not_initialized",
			"message": err.Error(),
		})
		return
	}

	bid := res.ShouldBid()
	metrics.BidDecisionsTotal.WithLabelValues(strconv.FormatBool(bid)).Inc()
	c.JSON(http.StatusOK, CheckResponse{Bid: bid, Result: res})
}

func (s *Server) statsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.statsResponse())
}

// maintenanceHandler runs a pool maintenance pass now. With reset=true the
// aggregate counters are zeroed after the snapshot is taken.
func (s *Server) maintenanceHandler(c *gin.Context) {
	s.maintain()
	resp := s.statsResponse()

	if reset, _ := strconv.ParseBool(c.Query("reset")); reset {
		s.client.Stats().Reset()
		logging.L(c.Request.Context()).Info("provider stats reset",
			"calls", resp.Calls,
			"latency_ms", resp.LatencyMillis,
		)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) statsResponse() StatsResponse {
	resp := StatsResponse{
		Provider:      forensiq.Source,
		StatsSnapshot: s.client.Stats().Snapshot(),
		Circuit:       s.client.BreakerState().String(),
	}
	if tr := s.client.Transport(); tr != nil {
		resp.InFlight = tr.InFlight()
		if last := tr.LastMaintenance(); !last.IsZero() {
			resp.LastMaintenance = last.UTC().Format(time.RFC3339)
		}
	}
	return resp
}
