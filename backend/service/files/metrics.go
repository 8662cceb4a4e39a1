package files

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Observer 记录文件操作的遥测数据
type Observer interface {
	RecordOperation(op string, duration time.Duration, sizeBytes int64, err error)
	RecordDenied(op string)
}

type nopObserver struct{}

func (nopObserver) RecordOperation(string, time.Duration, int64, error) {}
func (nopObserver) RecordDenied(string)                                {}

// PrometheusObserver 导出文件操作指标
type PrometheusObserver struct {
	duration     *prometheus.HistogramVec
	errors       *prometheus.CounterVec
	denied       *prometheus.CounterVec
	uploadedSize prometheus.Counter
}

func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "boardhub_files"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusObserver{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of file operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Count of failed file operations.",
		}, []string{"operation"}),
		denied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_denied_total",
			Help:      "Paths rejected for escaping the upload directory.",
		}, []string{"operation"}),
		uploadedSize: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Cumulative size of stored uploads.",
		}),
	}

	o.duration = register(reg, o.duration)
	o.errors = register(reg, o.errors)
	o.denied = register(reg, o.denied)
	o.uploadedSize = register(reg, o.uploadedSize)
	if o.duration == nil || o.errors == nil || o.denied == nil || o.uploadedSize == nil {
		return nil, fmt.Errorf("register file metrics: incompatible collector already registered")
	}
	return o, nil
}

// register 重复注册时复用已存在的 collector
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		var zero C
		return zero
	}
	return c
}

func (o *PrometheusObserver) RecordOperation(op string, duration time.Duration, sizeBytes int64, err error) {
	if o == nil {
		return
	}
	o.duration.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		o.errors.WithLabelValues(op).Inc()
		return
	}
	if op == opUpload && sizeBytes > 0 {
		o.uploadedSize.Add(float64(sizeBytes))
	}
}

func (o *PrometheusObserver) RecordDenied(op string) {
	if o == nil {
		return
	}
	o.denied.WithLabelValues(op).Inc()
}
