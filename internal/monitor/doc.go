// Package monitor serves live device telemetry over WebSocket for
// debugging. The firmware loop publishes snapshots; subscribers on
// /ws receive the latest one each second, and /status returns it on
// demand as plain JSON.
package monitor
