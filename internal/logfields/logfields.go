package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyCycleID    = "cycle_id"
	KeyStep       = "step"
	KeyRemote     = "remote"
	KeyBranch     = "branch"
	KeyRevision   = "revision"
	KeyPath       = "path"
	KeyDocument   = "document"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func CycleID(id string) slog.Attr     { return slog.String(KeyCycleID, id) }
func Step(name string) slog.Attr      { return slog.String(KeyStep, name) }
func Remote(name string) slog.Attr    { return slog.String(KeyRemote, name) }
func Branch(name string) slog.Attr    { return slog.String(KeyBranch, name) }
func Revision(hash string) slog.Attr  { return slog.String(KeyRevision, hash) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Document(name string) slog.Attr  { return slog.String(KeyDocument, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
