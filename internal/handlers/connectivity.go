package handlers

import (
	"net/http"
	"time"

	"houseofstone-client/internal/connectivity"

	"github.com/gin-gonic/gin"
)

type ConnectivityHandler struct {
	monitor *connectivity.Monitor
}

func NewConnectivityHandler(monitor *connectivity.Monitor) *ConnectivityHandler {
	return &ConnectivityHandler{monitor: monitor}
}

// QualityRequest carries Network Information API style estimates; rtt is in milliseconds.
type QualityRequest struct {
	EffectiveType string  `json:"effectiveType"`
	Downlink      float64 `json:"downlink" binding:"gte=0"`
	RTT           int64   `json:"rtt" binding:"gte=0"`
}

type StatusResponse struct {
	Online      bool             `json:"online"`
	WasOffline  bool             `json:"wasOffline"`
	Quality     QualityRequest   `json:"quality"`
	LastEmitted map[string]int64 `json:"lastEmitted"`
}

func (h *ConnectivityHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, statusResponse(h.monitor.Status()))
}

func (h *ConnectivityHandler) Online(c *gin.Context) {
	emitted := h.monitor.SetOnline(true)
	c.JSON(http.StatusOK, gin.H{"emitted": emitted, "status": statusResponse(h.monitor.Status())})
}

func (h *ConnectivityHandler) Offline(c *gin.Context) {
	emitted := h.monitor.SetOnline(false)
	c.JSON(http.StatusOK, gin.H{"emitted": emitted, "status": statusResponse(h.monitor.Status())})
}

func (h *ConnectivityHandler) Quality(c *gin.Context) {
	var req QualityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(badRequest(err))
		return
	}
	emitted := h.monitor.ReportQuality(connectivity.Quality{
		EffectiveType: req.EffectiveType,
		DownlinkMbps:  req.Downlink,
		RTT:           time.Duration(req.RTT) * time.Millisecond,
	})
	c.JSON(http.StatusOK, gin.H{"emitted": emitted})
}

func statusResponse(s connectivity.Status) StatusResponse {
	last := make(map[string]int64, len(s.LastEmitted))
	for t, at := range s.LastEmitted {
		last[string(t)] = at.UnixMilli()
	}
	return StatusResponse{
		Online:     s.Online,
		WasOffline: s.WasOffline,
		Quality: QualityRequest{
			EffectiveType: s.Quality.EffectiveType,
			Downlink:      s.Quality.DownlinkMbps,
			RTT:           s.Quality.RTT.Milliseconds(),
		},
		LastEmitted: last,
	}
}
