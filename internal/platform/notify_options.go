package platform

import "time"

// DefaultTimeout is how long a notification stays visible when Options
// leaves Timeout unset.
const DefaultTimeout = 5 * time.Second

// Options configures how an export notification is displayed on the host
// platform.
type Options struct {
	// AppName identifies the sender where the platform shows one.
	AppName string
	// IconPath, when non-empty, points at the exported PNG so the notification
	// can preview it.
	IconPath string
	// Category is a freedesktop category hint such as "transfer.complete".
	Category string
	// Timeout overrides DefaultTimeout. Negative values keep the notification
	// until dismissed.
	Timeout time.Duration
}

func (o Options) appName() string {
	if o.AppName == "" {
		return "Frame Studio"
	}
	return o.AppName
}

// expireMillis maps Timeout to the freedesktop expire_timeout argument.
func (o Options) expireMillis() int32 {
	switch {
	case o.Timeout < 0:
		return 0
	case o.Timeout == 0:
		return int32(DefaultTimeout / time.Millisecond)
	default:
		return int32(o.Timeout / time.Millisecond)
	}
}

// hints returns the string hints understood by notification daemons.
func (o Options) hints() map[string]string {
	h := map[string]string{"desktop-entry": "framestudio"}
	if o.Category != "" {
		h["category"] = o.Category
	}
	if o.IconPath != "" {
		h["image-path"] = o.IconPath
	}
	return h
}
