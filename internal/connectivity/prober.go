package connectivity

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"houseofstone-client/pkg/config"
	"houseofstone-client/pkg/logger"
)

const (
	DefaultProbeInterval = 15 * time.Second
	DefaultProbeTimeout  = 5 * time.Second
)

// Prober feeds the monitor by sending HEAD requests to a fixed URL. Any HTTP
// response counts as online; the round trip time is reported as quality.
type Prober struct {
	monitor  *Monitor
	client   *http.Client
	url      string
	interval time.Duration
	log      *logger.Logger
}

func NewProber(m *Monitor, cfg config.ConnectivityConfig, l *logger.Logger) *Prober {
	interval := cfg.ProbeInterval
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	timeout := cfg.ProbeTimeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	if l == nil {
		l = logger.Default()
	}
	return &Prober{
		monitor:  m,
		client:   &http.Client{Timeout: timeout},
		url:      cfg.ProbeURL,
		interval: interval,
		log:      l,
	}
}

// Run probes immediately and then on every interval until ctx is done.
func (p *Prober) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.log.Printf("Connectivity prober started: url=%s, interval=%s", p.url, p.interval)
	for {
		if err := p.Probe(ctx); err != nil && ctx.Err() == nil {
			p.log.Debugf("Connectivity probe failed: url=%s, error=%v", p.url, err)
		}
		select {
		case <-ctx.Done():
			p.log.Printf("Connectivity prober stopped")
			return
		case <-ticker.C:
		}
	}
}

// Probe performs one check and reports the outcome to the monitor.
func (p *Prober) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return fmt.Errorf("failed to create probe request: %w", err)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			p.monitor.SetOnline(false)
		}
		return err
	}
	resp.Body.Close()
	rtt := time.Since(start)

	p.monitor.SetOnline(true)
	p.monitor.ReportQuality(Quality{RTT: rtt})
	return nil
}
