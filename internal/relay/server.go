package relay

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"whisper/internal/domain"
	"whisper/internal/logging"
	"whisper/internal/metrics"
)

// Server is the in-memory store-and-forward relay. It holds published
// bundles and per-address envelope queues; it never sees plaintext.
type Server struct {
	mu      sync.Mutex
	bundles map[string]domain.PublishedBundle
	queues  map[string][]domain.Envelope

	log      *logrus.Entry
	metrics  *metrics.Relay
	registry *prometheus.Registry
	now      func() time.Time
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the access and event logger.
func WithServerLogger(l *logrus.Entry) ServerOption { return func(s *Server) { s.log = l } }

// WithRegistry enables request metrics and serves them on /metrics.
func WithRegistry(reg *prometheus.Registry) ServerOption {
	return func(s *Server) { s.registry = reg }
}

// NewServer returns an empty relay.
func NewServer(opts ...ServerOption) (*Server, error) {
	s := &Server{
		bundles: make(map[string]domain.PublishedBundle),
		queues:  make(map[string][]domain.Envelope),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.OrDiscard(s.log)
	if s.registry != nil {
		m, err := metrics.NewRelay(s.registry)
		if err != nil {
			return nil, err
		}
		s.metrics = m
	}
	return s, nil
}

// Handler returns the relay's HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("GET /prekey/{address}", s.handlePreKey)
	mux.HandleFunc("POST /msg/{address}", s.handleSend)
	mux.HandleFunc("GET /msg/{address}", s.handleFetch)
	mux.HandleFunc("POST /msg/{address}/ack", s.handleAck)
	if s.registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	return s.accessLog(mux)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	s.metrics.Request("register")
	var b domain.PublishedBundle
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if b.Address.Name == "" {
		http.Error(w, "missing address", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.bundles[b.Address.String()] = b
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"address":   b.Address.String(),
		"pre_keys":  len(b.PreKeys),
		"signed_id": b.SignedPreKeyID,
	}).Info("registered bundle")
	w.WriteHeader(http.StatusOK)
}

// handlePreKey hands out the bundle with one one-time pre-key, which is then
// removed from the published set.
func (s *Server) handlePreKey(w http.ResponseWriter, r *http.Request) {
	s.metrics.Request("prekey")
	addr, ok := s.address(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	published, found := s.bundles[addr]
	var out domain.PreKeyBundle
	if found {
		out, s.bundles[addr] = published.Take()
	}
	s.mu.Unlock()

	if !found {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, out)
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	s.metrics.Request("send")
	addr, ok := s.address(w, r)
	if !ok {
		return
	}
	var env domain.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !env.Type.Valid() {
		http.Error(w, "unknown message type", http.StatusBadRequest)
		return
	}
	if env.Timestamp == 0 {
		env.Timestamp = s.now().Unix()
	}
	s.mu.Lock()
	s.queues[addr] = append(s.queues[addr], env)
	s.mu.Unlock()
	s.metrics.Queued(1)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	s.metrics.Request("fetch")
	addr, ok := s.address(w, r)
	if !ok {
		return
	}
	limit := -1
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	s.mu.Lock()
	q := s.queues[addr]
	if limit < 0 || limit > len(q) {
		limit = len(q)
	}
	out := make([]domain.Envelope, limit)
	copy(out, q[:limit])
	s.mu.Unlock()

	writeJSON(w, out)
}

func (s *Server) handleAck(w http.ResponseWriter, r *http.Request) {
	s.metrics.Request("ack")
	addr, ok := s.address(w, r)
	if !ok {
		return
	}
	var req ackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Count < 0 {
		http.Error(w, "bad ack", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	q := s.queues[addr]
	n := min(req.Count, len(q))
	s.queues[addr] = q[n:]
	if len(s.queues[addr]) == 0 {
		delete(s.queues, addr)
	}
	s.mu.Unlock()

	s.metrics.Queued(-n)
	w.WriteHeader(http.StatusOK)
}

// address normalises the {address} path value to "name.device".
func (s *Server) address(w http.ResponseWriter, r *http.Request) (string, bool) {
	addr, err := domain.ParseSessionAddress(r.PathValue("address"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return addr.String(), true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"remote":   r.RemoteAddr,
			"status":   rec.status,
			"bytes":    rec.bytes,
			"duration": s.now().Sub(start),
		}).Debug("request")
	})
}
