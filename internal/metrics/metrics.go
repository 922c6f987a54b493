// Package metrics declares the prometheus collectors shared by both
// units. Observability only; nothing here affects control flow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CommandsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lumina_commands_dispatched_total",
		Help: "Commands accepted by the dispatcher, by transport.",
	}, []string{"transport"})

	AudioBlocksSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lumina_audio_blocks_sent_total",
		Help: "Conditioned capture blocks transmitted to the peer.",
	})

	AudioBlocksReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lumina_audio_blocks_received_total",
		Help: "Playback datagrams received.",
	})

	AudioTruncated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lumina_audio_datagrams_truncated_total",
		Help: "Oversized playback datagrams truncated to the output buffer.",
	})

	HeartbeatFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lumina_heartbeat_failures_total",
		Help: "Heartbeat datagrams that failed to send.",
	})

	StreamFramesServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lumina_stream_frames_served_total",
		Help: "Video frames written to the active stream session.",
	})

	StreamBytesServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lumina_stream_bytes_served_total",
		Help: "Video payload bytes written to the active stream session.",
	})

	StreamRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lumina_stream_busy_rejections_total",
		Help: "Stream connection attempts rejected because a session was active.",
	})
)
