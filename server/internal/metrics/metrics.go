package metrics

import (
	"log/slog"
	"net/http"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/dicekv/dicekv/server/internal/store"
)

// Metric names.
const (
	Records       = "dicekv_records"
	Created       = "dicekv_records_created_total"
	Updated       = "dicekv_records_updated_total"
	Deleted       = "dicekv_records_deleted_total"
	Evicted       = "dicekv_records_evicted_total"
	Sweeps        = "dicekv_eviction_sweeps_total"
	Misses        = "dicekv_lookup_misses_total"
	SweepInterval = "dicekv_sweep_interval_seconds"
)

// Families converts a stats snapshot into metric families. interval is
// omitted when zero.
func Families(s store.Stats, interval time.Duration) []*dto.MetricFamily {
	out := []*dto.MetricFamily{
		gauge(Records, "Number of live records.", float64(s.Records)),
		counter(Created, "Records created since start.", s.Created),
		counter(Updated, "Successful record updates since start.", s.Updated),
		counter(Deleted, "Records deleted by clients since start.", s.Deleted),
		counter(Evicted, "Records removed by the evictor since start.", s.Evicted),
		counter(Sweeps, "Eviction sweeps run since start.", s.Sweeps),
		counter(Misses, "Reads, updates and deletes of absent ids.", s.Misses),
	}
	if interval > 0 {
		out = append(out, gauge(SweepInterval, "Current eviction sweep interval.", interval.Seconds()))
	}
	return out
}

// Handler serves the current statistics of st. ev may be nil.
func Handler(st *store.Store, ev *store.Evictor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var interval time.Duration
		if ev != nil {
			interval = ev.Interval()
		}

		format := expfmt.Negotiate(r.Header)
		w.Header().Set("Content-Type", string(format))
		enc := expfmt.NewEncoder(w, format)
		for _, mf := range Families(st.Stats(), interval) {
			if err := enc.Encode(mf); err != nil {
				slog.Warn("metrics: encode failed", "family", mf.GetName(), "error", err)
				return
			}
		}
	})
}

func gauge(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: proto.Float64(v)}}},
	}
}

func counter(name, help string, v uint64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{Counter: &dto.Counter{Value: proto.Float64(float64(v))}}},
	}
}
