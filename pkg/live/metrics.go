package live

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session counters exposed on the dashboard's /metrics endpoint.
var (
	framesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buddy_live_audio_frames_sent_total",
		Help: "Outbound microphone frames delivered to the transport.",
	})

	framesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buddy_live_audio_frames_dropped_total",
		Help: "Outbound microphone frames the transport could not accept.",
	})

	chunksScheduled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buddy_live_audio_chunks_scheduled_total",
		Help: "Inbound audio chunks decoded and scheduled for playback.",
	})

	decodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buddy_live_audio_decode_errors_total",
		Help: "Inbound audio chunks dropped as malformed.",
	})

	interruptions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buddy_live_interruptions_total",
		Help: "Barge-in signals that cut playback.",
	})

	toolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buddy_live_tool_calls_total",
		Help: "Tool invocations by tool name and outcome.",
	}, []string{"tool", "status"})

	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buddy_live_transcript_turns_total",
		Help: "Completed transcript turns by speaker.",
	}, []string{"speaker"})

	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "buddy_live_sessions_active",
		Help: "Sessions currently connecting or open.",
	})
)
