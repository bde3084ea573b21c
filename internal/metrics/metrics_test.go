package metrics_test

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whisper/internal/domain/types"
	"whisper/internal/metrics"
)

func TestMessages_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.NewMessages(reg)
	require.NoError(t, err)

	m.Encrypted(types.MessageTypePreKey)
	m.Encrypted(types.MessageTypeWhisper)
	m.Encrypted(types.MessageTypeWhisper)
	m.Decrypted(types.MessageTypeSenderKey, nil)
	m.Decrypted(types.MessageTypeSenderKey, errors.New("boom"))

	n, err := testutil.GatherAndCount(reg, "whisper_messages_encrypted_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series per type")

	n, err = testutil.GatherAndCount(reg, "whisper_messages_decrypted_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series per result")
}

func TestMessages_DoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := metrics.NewMessages(reg)
	require.NoError(t, err)
	_, err = metrics.NewMessages(reg)
	assert.Error(t, err)
}

func TestNilCollectorsAreNoops(t *testing.T) {
	var m *metrics.Messages
	m.Encrypted(types.MessageTypeWhisper)
	m.Decrypted(types.MessageTypeWhisper, nil)

	var r *metrics.Relay
	r.Request("register")
	r.Queued(1)
}

func TestRelay_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := metrics.NewRelay(reg)
	require.NoError(t, err)

	r.Request("send")
	r.Request("send")
	r.Queued(3)
	r.Queued(-1)

	n, err := testutil.GatherAndCount(reg, "whisper_relay_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = testutil.GatherAndCount(reg, "whisper_relay_queued_envelopes")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
