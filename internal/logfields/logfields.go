package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeySceneID    = "scene_id"
	KeyPath       = "path"
	KeyTier       = "tier"
	KeyConfidence = "confidence"
	KeyReason     = "reason"
	KeyCategory   = "category"
	KeyCount      = "count"
	KeyChecksum   = "checksum"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func SceneID(id string) slog.Attr       { return slog.String(KeySceneID, id) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func Tier(t int) slog.Attr              { return slog.Int(KeyTier, t) }
func Confidence(c float64) slog.Attr    { return slog.Float64(KeyConfidence, c) }
func Reason(r string) slog.Attr         { return slog.String(KeyReason, r) }
func Category(c string) slog.Attr       { return slog.String(KeyCategory, c) }
func Count(n int) slog.Attr             { return slog.Int(KeyCount, n) }
func Checksum(sum string) slog.Attr     { return slog.String(KeyChecksum, sum) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
