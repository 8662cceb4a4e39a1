package monday

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// NewRequestCounter 注册 Monday 请求计数器（按查询名与结果区分）
func NewRequestCounter(reg prometheus.Registerer) (*prometheus.CounterVec, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "boardhub_monday",
		Name:      "requests_total",
		Help:      "Monday API requests by query and outcome.",
	}, []string{"query", "outcome"})
	if err := reg.Register(counter); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return counter, nil
}

func (c *Client) observe(query string, err error) {
	if c.requests == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.requests.WithLabelValues(query, outcome).Inc()
}
