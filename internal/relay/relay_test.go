package relay_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whisper/internal/domain"
	"whisper/internal/relay"
)

var (
	alice = domain.SessionAddress{Name: "alice", DeviceID: 1}
	bob   = domain.SessionAddress{Name: "bob", DeviceID: 1}
)

func newRelay(t *testing.T) (*relay.HTTP, *prometheus.Registry, *httptest.Server) {
	t.Helper()
	reg := prometheus.NewRegistry()
	srv, err := relay.NewServer(relay.WithRegistry(reg))
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	c := relay.NewHTTP(ts.URL)
	c.HTTP = ts.Client()
	return c, reg, ts
}

func TestRelay_BundleHandsOutEachPreKeyOnce(t *testing.T) {
	c, _, _ := newRelay(t)
	ctx := context.Background()

	_, err := c.FetchPreKeyBundle(ctx, bob)
	require.ErrorIs(t, err, relay.ErrNotFound)

	require.NoError(t, c.RegisterPreKeyBundle(ctx, domain.PublishedBundle{
		Address:        bob,
		RegistrationID: 42,
		SignedPreKeyID: 1,
		PreKeys: []domain.PreKeyPublic{
			{ID: 1, Public: domain.X25519Public{1}},
			{ID: 2, Public: domain.X25519Public{2}},
		},
	}))

	for _, want := range []uint32{1, 2} {
		b, err := c.FetchPreKeyBundle(ctx, bob)
		require.NoError(t, err)
		assert.EqualValues(t, 42, b.RegistrationID)
		assert.Equal(t, want, b.PreKeyID)
		require.NotNil(t, b.PreKey)
		assert.Equal(t, domain.X25519Public{byte(want)}, *b.PreKey)
	}

	b, err := c.FetchPreKeyBundle(ctx, bob)
	require.NoError(t, err)
	assert.Zero(t, b.PreKeyID)
	assert.Nil(t, b.PreKey, "exhausted bundles carry only the signed pre-key")
}

func TestRelay_QueueUntilAck(t *testing.T) {
	c, reg, _ := newRelay(t)
	ctx := context.Background()

	for _, p := range []string{"one", "two", "three"} {
		require.NoError(t, c.SendMessage(ctx, domain.Envelope{
			Type:    domain.MessageTypeWhisper,
			From:    alice,
			To:      bob,
			Payload: []byte(p),
		}))
	}
	assert.Equal(t, 3.0, gauge(t, reg))

	got, err := c.FetchMessages(ctx, bob, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "one", string(got[0].Payload))
	assert.NotZero(t, got[0].Timestamp, "relay stamps missing timestamps")

	// Fetching does not consume.
	got, err = c.FetchMessages(ctx, bob, 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	require.NoError(t, c.AckMessages(ctx, bob, 2))
	got, err = c.FetchMessages(ctx, bob, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "three", string(got[0].Payload))
	assert.Equal(t, 1.0, gauge(t, reg))

	require.NoError(t, c.AckMessages(ctx, bob, 10))
	got, err = c.FetchMessages(ctx, bob, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	other, err := c.FetchMessages(ctx, alice, 0)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRelay_RejectsUnknownType(t *testing.T) {
	c, _, _ := newRelay(t)
	err := c.SendMessage(context.Background(), domain.Envelope{Type: "bogus", To: bob})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestRelay_AddressWithoutDeviceIsDeviceZero(t *testing.T) {
	c, _, ts := newRelay(t)
	ctx := context.Background()
	require.NoError(t, c.SendMessage(ctx, domain.Envelope{
		Type: domain.MessageTypeWhisper,
		To:   domain.SessionAddress{Name: "carol"},
	}))

	resp, err := ts.Client().Get(ts.URL + "/msg/carol")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"type":"msg"`)
}

func TestRelay_ServesMetrics(t *testing.T) {
	c, reg, ts := newRelay(t)
	_, _ = c.FetchMessages(context.Background(), bob, 0)

	n, err := testutil.GatherAndCount(reg, "whisper_relay_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	resp, err := ts.Client().Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `whisper_relay_requests_total{endpoint="fetch"} 1`)
}

func gauge(t *testing.T, reg *prometheus.Registry) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == "whisper_relay_queued_envelopes" {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatal("queued gauge not registered")
	return 0
}
