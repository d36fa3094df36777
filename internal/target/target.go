package target

import (
	"os"

	"go.uber.org/zap"
)

// Target identifies which storage backend answers a call.
type Target int

const (
	Unknown Target = iota
	SelfHosted
	Cloud
)

// cloudMarker is the literal S3_TARGET value that selects the cloud backend.
// Anything else, including an unset variable, selects the self-hosted store.
const cloudMarker = "AWS"

func (t Target) String() string {
	switch t {
	case SelfHosted:
		return "self-hosted"
	case Cloud:
		return "cloud"
	}
	return "unknown"
}

// Resolve reads S3_TARGET on every call. The value is deliberately not cached:
// during a migration window it can change between requests, and both backends
// must stay reachable. An absent value silently falls back to self-hosted so
// dual-target deployments do not break; we only leave a debug breadcrumb.
func Resolve() Target {
	v, ok := os.LookupEnv("S3_TARGET")
	if !ok {
		zap.L().Debug("S3_TARGET is not set, defaulting to self-hosted backend")
		return SelfHosted
	}
	if v == cloudMarker {
		return Cloud
	}
	return SelfHosted
}
