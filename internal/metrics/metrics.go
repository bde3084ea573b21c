// Package metrics defines the Prometheus collectors shared by the client
// services and the relay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"whisper/internal/domain/types"
)

const (
	namespace = "whisper"

	typeLabel     = "type"
	resultLabel   = "result"
	endpointLabel = "endpoint"
)

// Result label values.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Messages counts protocol messages handled by a client.
type Messages struct {
	encrypted *prometheus.CounterVec
	decrypted *prometheus.CounterVec
}

// NewMessages registers the message counters with registerer.
func NewMessages(registerer prometheus.Registerer) (*Messages, error) {
	m := &Messages{
		encrypted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_encrypted_total",
				Help:      "Number of messages encrypted, by message type.",
			},
			[]string{typeLabel},
		),
		decrypted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_decrypted_total",
				Help:      "Number of inbound messages processed, by message type and result.",
			},
			[]string{typeLabel, resultLabel},
		),
	}
	err := multierr.Combine(
		registerer.Register(m.encrypted),
		registerer.Register(m.decrypted),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Encrypted records one outbound message of type t.
func (m *Messages) Encrypted(t types.MessageType) {
	if m == nil {
		return
	}
	m.encrypted.WithLabelValues(string(t)).Inc()
}

// Decrypted records one inbound message of type t and its outcome.
func (m *Messages) Decrypted(t types.MessageType, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultFailed
	}
	m.decrypted.WithLabelValues(string(t), result).Inc()
}

// Relay counts requests served by the relay.
type Relay struct {
	requests *prometheus.CounterVec
	queued   prometheus.Gauge
}

// NewRelay registers the relay collectors with registerer.
func NewRelay(registerer prometheus.Registerer) (*Relay, error) {
	r := &Relay{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "relay",
				Name:      "requests_total",
				Help:      "Number of relay requests, by endpoint.",
			},
			[]string{endpointLabel},
		),
		queued: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "queued_envelopes",
			Help:      "Envelopes waiting to be fetched.",
		}),
	}
	err := multierr.Combine(
		registerer.Register(r.requests),
		registerer.Register(r.queued),
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Request records one request to endpoint.
func (r *Relay) Request(endpoint string) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(endpoint).Inc()
}

// Queued adds delta to the number of waiting envelopes.
func (r *Relay) Queued(delta int) {
	if r == nil {
		return
	}
	r.queued.Add(float64(delta))
}
