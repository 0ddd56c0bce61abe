package bot

// Notifier is the realtime emit target for session lifecycle events. The
// registry only emits through it; it never reads registry state back.
type Notifier interface {
	Notify(userID int64, event string, data map[string]any)
}

// NopNotifier is used until a realtime channel is attached.
type NopNotifier struct{}

func (NopNotifier) Notify(int64, string, map[string]any) {}
