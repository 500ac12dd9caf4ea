// Package metrics exposes server state and transfer counters to Prometheus.
// Each Metrics value owns its registry, so several servers can live in one
// process.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sources are read at scrape time. Nil funcs are skipped.
type Sources struct {
	Capacity      int64
	Reserved      func() int64
	ActiveUploads func() int
	OnlineUsers   func() int
	Subscribers   func() int
	Files         func() int
	OpenRequests  func() int
	PushStats     func() (delivered, dropped, absent uint64)
}

type Metrics struct {
	reg *prometheus.Registry

	// Uploads counts finished uploads by result.
	Uploads *prometheus.CounterVec
	// Downloads counts finished downloads by result.
	Downloads *prometheus.CounterVec
	// Requests counts accepted file requests by scope (unicast, broadcast).
	Requests *prometheus.CounterVec
	// Logins counts login attempts by result.
	Logins *prometheus.CounterVec

	UploadedBytes   prometheus.Counter
	DownloadedBytes prometheus.Counter
}

func New(src Sources) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	f := promauto.With(reg)

	m := &Metrics{
		reg: reg,
		Uploads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gophshare_uploads_total",
			Help: "Finished uploads by result.",
		}, []string{"result"}),
		Downloads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gophshare_downloads_total",
			Help: "Finished downloads by result.",
		}, []string{"result"}),
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gophshare_file_requests_total",
			Help: "Accepted file requests by scope.",
		}, []string{"scope"}),
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gophshare_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		UploadedBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "gophshare_uploaded_bytes_total",
			Help: "Bytes committed by successful uploads.",
		}),
		DownloadedBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "gophshare_downloaded_bytes_total",
			Help: "Bytes streamed by successful downloads.",
		}),
	}

	f.NewGauge(prometheus.GaugeOpts{
		Name: "gophshare_capacity_bytes",
		Help: "Upload buffer capacity.",
	}).Set(float64(src.Capacity))

	gauge := func(name, help string, fn func() float64) {
		f.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, fn)
	}
	if src.Reserved != nil {
		gauge("gophshare_reserved_bytes", "Bytes reserved by active uploads.", func() float64 { return float64(src.Reserved()) })
	}
	if src.ActiveUploads != nil {
		gauge("gophshare_active_uploads", "Open upload sessions.", func() float64 { return float64(src.ActiveUploads()) })
	}
	if src.OnlineUsers != nil {
		gauge("gophshare_online_users", "Users currently logged in.", func() float64 { return float64(src.OnlineUsers()) })
	}
	if src.Subscribers != nil {
		gauge("gophshare_notification_subscribers", "Registered notification channels.", func() float64 { return float64(src.Subscribers()) })
	}
	if src.Files != nil {
		gauge("gophshare_catalog_files", "Records in the file catalog.", func() float64 { return float64(src.Files()) })
	}
	if src.OpenRequests != nil {
		gauge("gophshare_open_requests", "File requests still open.", func() float64 { return float64(src.OpenRequests()) })
	}

	if src.PushStats != nil {
		counter := func(outcome string, pick func(d, dr, ab uint64) uint64) {
			f.NewCounterFunc(prometheus.CounterOpts{
				Name:        "gophshare_notifications_total",
				Help:        "Live notification pushes by outcome.",
				ConstLabels: prometheus.Labels{"outcome": outcome},
			}, func() float64 { return float64(pick(src.PushStats())) })
		}
		counter("delivered", func(d, _, _ uint64) uint64 { return d })
		counter("dropped", func(_, dr, _ uint64) uint64 { return dr })
		counter("absent", func(_, _, ab uint64) uint64 { return ab })
	}

	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
