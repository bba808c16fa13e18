package dashboard

import "github.com/jrsteele09/fpl-companion/navigation"

// Status summarises how an orchestrator operation ended.
type Status string

const (
	StatusOK              Status = "ok"
	StatusNotLinked       Status = "not_linked"
	StatusEmpty           Status = "empty"
	StatusFailed          Status = "failed"
	StatusDetached        Status = "detached"
	StatusUnauthenticated Status = "unauthenticated"
)

// Result is returned by every orchestrator operation. A non-zero Intent has
// already been handed to the navigator, if one is configured.
type Result struct {
	Status Status            `json:"status"`
	Intent navigation.Intent `json:"redirect"`
}

func okResult() Result {
	return Result{Status: StatusOK}
}

func detachedResult() Result {
	return Result{Status: StatusDetached}
}
