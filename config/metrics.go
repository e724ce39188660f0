package config

import (
	"geoconsole/metrics"
)

const (
	ActiveSessions      metrics.MKey = "active_sessions"
	StreamConnections   metrics.MKey = "stream_connections"
	MountedEditors      metrics.MKey = "mounted_editors"
	PendingSaves        metrics.MKey = "pending_saves"
	IncomingChanges     metrics.MKey = "incoming_change_notices"
	DroppedStreamFrames metrics.MKey = "dropped_stream_frames"
)

func registerAllKeys() {
	metrics.RegisterGauges(
		ActiveSessions,
		StreamConnections,
		MountedEditors,
		PendingSaves,
		IncomingChanges,
		DroppedStreamFrames,
	)
}
