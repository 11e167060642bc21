package noise

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dep2p/go-seclink/pkg/types"
)

// 指标标签取值
const (
	directionInbound  = "inbound"
	directionOutbound = "outbound"

	resultSuccess           = "success"
	resultHandshakeFailure  = "handshake_failure"
	resultPeerIDMismatch    = "peer_id_mismatch"
	resultConnectionFailure = "connection_failure"
	resultOther             = "error"
)

// metrics 握手指标
type metrics struct {
	handshakes *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// newMetrics 在 reg 上注册握手指标，reg 为 nil 时不记录
//
// 同一注册表上的多个传输共享已注册的收集器。
func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	if reg == nil {
		return nil, nil
	}

	handshakes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seclink",
		Subsystem: "noise",
		Name:      "handshakes_total",
		Help:      "Number of Noise handshakes by direction and result.",
	}, []string{"direction", "result"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "seclink",
		Subsystem: "noise",
		Name:      "handshake_duration_seconds",
		Help:      "Duration of successful Noise handshakes.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
	}, []string{"direction"})

	var err error
	m := &metrics{}
	if m.handshakes, err = register(reg, handshakes); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return m, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// observe 记录一次握手结果
func (m *metrics) observe(direction string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.handshakes.WithLabelValues(direction, resultLabel(err)).Inc()
	if err == nil {
		m.duration.WithLabelValues(direction).Observe(elapsed.Seconds())
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return resultSuccess
	case errors.Is(err, types.ErrPeerIDMismatch):
		return resultPeerIDMismatch
	case errors.Is(err, types.ErrHandshakeFailure):
		return resultHandshakeFailure
	case errors.Is(err, types.ErrConnectionFailure):
		return resultConnectionFailure
	default:
		return resultOther
	}
}
