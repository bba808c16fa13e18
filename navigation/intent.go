// Package navigation models "go to path" side effects as values so data-layer
// calls can report where the UI should go without owning a router.
package navigation

import "time"

// Well-known destinations.
const (
	PathLogin     = "/login"
	PathLinkFPL   = "/link-fpl"
	PathDashboard = "/dashboard"
)

// Intent asks the UI to navigate to To once After has elapsed.
// The zero Intent means "stay where you are".
type Intent struct {
	To    string        `json:"to"`
	After time.Duration `json:"-"`
}

// None is the empty intent.
var None = Intent{}

// Redirect builds an immediate intent.
func Redirect(to string) Intent {
	return Intent{To: to}
}

// RedirectAfter builds an intent that fires after delay.
func RedirectAfter(to string, delay time.Duration) Intent {
	return Intent{To: to, After: delay}
}

// IsZero reports whether the intent carries no destination.
func (i Intent) IsZero() bool {
	return i.To == ""
}

// AfterMillis is the delay in milliseconds, for JSON consumers.
func (i Intent) AfterMillis() int64 {
	return i.After.Milliseconds()
}
