package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/graylogic-labs/knxnetip/config"
	"github.com/graylogic-labs/knxnetip/internal/xlog"
	"github.com/graylogic-labs/knxnetip/routing"
	"github.com/graylogic-labs/knxnetip/tunnel"
)

// defaultSampleInterval is used when config.InfluxDBConfig.FlushInterval
// is unset, both for the Prometheus gauge refresh and the InfluxDB push
// cadence.
const defaultSampleInterval = 10 * time.Second

const defaultConnectTimeout = 10 * time.Second

// Deps holds the dependencies required by a Recorder. Exactly one of
// Tunnel or Routing must be set.
type Deps struct {
	InfluxDB config.InfluxDBConfig
	SiteID   string
	Logger   *xlog.Logger

	Tunnel  *tunnel.Session
	Routing *routing.Engine
}

// Recorder samples transport counters on an interval, publishing them
// as Prometheus gauges and, when configured, as InfluxDB points.
type Recorder struct {
	siteID string
	logger *xlog.Logger

	tunnelSess *tunnel.Session
	routingEng *routing.Engine

	interval time.Duration

	registry       *prometheus.Registry
	telegramsTx    prometheus.Gauge
	telegramsRx    prometheus.Gauge
	errorsTotal    prometheus.Gauge
	queueOverflows prometheus.Gauge
	lostToIP       prometheus.Gauge

	influxCfg    config.InfluxDBConfig
	influxClient influxdb2.Client
	writeAPI     api.WriteAPI

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRecorder builds a Recorder and registers its Prometheus gauges.
// It does not connect to InfluxDB or start sampling; call Start for that.
func NewRecorder(deps Deps) (*Recorder, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("telemetry: logger is required")
	}
	if (deps.Tunnel == nil) == (deps.Routing == nil) {
		return nil, ErrMutuallyExclusiveSource
	}

	interval := time.Duration(deps.InfluxDB.FlushInterval) * time.Second
	if interval <= 0 {
		interval = defaultSampleInterval
	}

	reg := prometheus.NewRegistry()
	r := &Recorder{
		siteID:     deps.SiteID,
		logger:     deps.Logger,
		tunnelSess: deps.Tunnel,
		routingEng: deps.Routing,
		interval:   interval,
		registry:   reg,
		influxCfg:  deps.InfluxDB,

		telegramsTx: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "knxnetip", Name: "telegrams_tx_total",
			Help: "Telegrams transmitted by the active transport.",
		}),
		telegramsRx: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "knxnetip", Name: "telegrams_rx_total",
			Help: "Telegrams received by the active transport.",
		}),
		errorsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "knxnetip", Name: "tunnel_errors_total",
			Help: "Tunnelling session errors (tunnel transport only).",
		}),
		queueOverflows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "knxnetip", Name: "routing_queue_overflows_total",
			Help: "Send-queue overflows (routing transport only).",
		}),
		lostToIP: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "knxnetip", Name: "routing_lost_to_ip_total",
			Help: "Multicast send errors (routing transport only).",
		}),
	}

	reg.MustRegister(r.telegramsTx, r.telegramsRx, r.errorsTotal, r.queueOverflows, r.lostToIP)
	return r, nil
}

// Handler returns the Prometheus scrape endpoint for this Recorder's
// registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Start connects to InfluxDB (if enabled) and launches the sampling
// loop. It does not block.
func (r *Recorder) Start(ctx context.Context) error {
	if r.influxCfg.Enabled {
		if err := r.connectInflux(ctx); err != nil {
			return err
		}
	}

	var sampleCtx context.Context
	sampleCtx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go r.sampleLoop(sampleCtx)

	return nil
}

func (r *Recorder) connectInflux(ctx context.Context) error {
	batchSize := r.influxCfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	flushMillis := uint(r.interval / time.Millisecond)

	client := influxdb2.NewClientWithOptions(
		r.influxCfg.URL,
		r.influxCfg.Token,
		influxdb2.DefaultOptions().SetBatchSize(uint(batchSize)).SetFlushInterval(flushMillis),
	)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	healthy, err := client.Ping(pingCtx)
	if err != nil {
		client.Close()
		return fmt.Errorf("telemetry: influxdb ping failed: %w", err)
	}
	if !healthy {
		client.Close()
		return fmt.Errorf("telemetry: influxdb server not healthy")
	}

	r.influxClient = client
	r.writeAPI = client.WriteAPI(r.influxCfg.Org, r.influxCfg.Bucket)

	errorsCh := r.writeAPI.Errors()
	go func() {
		for err := range errorsCh {
			r.logger.Error("influxdb write error", "error", err)
		}
	}()

	return nil
}

// Close stops the sampling loop and flushes/closes the InfluxDB client.
func (r *Recorder) Close() error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.influxClient != nil {
		r.writeAPI.Flush()
		r.influxClient.Close()
	}
	return nil
}

func (r *Recorder) sampleLoop(ctx context.Context) {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sample()
		}
	}
}

func (r *Recorder) sample() {
	now := time.Now()
	switch {
	case r.tunnelSess != nil:
		stats := r.tunnelSess.Stats()
		r.telegramsTx.Set(float64(stats.TelegramsTx))
		r.telegramsRx.Set(float64(stats.TelegramsRx))
		r.errorsTotal.Set(float64(stats.Errors))
		if r.writeAPI != nil {
			r.writeAPI.WritePoint(write.NewPoint(
				"knxnetip_tunnel",
				map[string]string{"site_id": r.siteID},
				map[string]interface{}{
					"telegrams_tx": stats.TelegramsTx,
					"telegrams_rx": stats.TelegramsRx,
					"errors":       stats.Errors,
				},
				now,
			))
		}
	case r.routingEng != nil:
		stats := r.routingEng.Stats()
		r.telegramsTx.Set(float64(stats.TelegramsTx))
		r.telegramsRx.Set(float64(stats.TelegramsRx))
		r.queueOverflows.Set(float64(stats.QueueOverflows))
		r.lostToIP.Set(float64(stats.LostToIP))
		if r.writeAPI != nil {
			r.writeAPI.WritePoint(write.NewPoint(
				"knxnetip_routing",
				map[string]string{"site_id": r.siteID},
				map[string]interface{}{
					"telegrams_tx":    stats.TelegramsTx,
					"telegrams_rx":    stats.TelegramsRx,
					"queue_overflows": stats.QueueOverflows,
					"lost_to_ip":      stats.LostToIP,
				},
				now,
			))
		}
	}
}
