package model

import "github.com/m-mizutani/goerr/v2"

// Error tags classify failures of the append pipeline so callers can decide
// whether to retry without inspecting messages.
var (
	// TagTransient marks network or timeout failures of an external call.
	// A whole append carrying this tag is safe to retry from the top; the
	// pipeline never retries internally.
	TagTransient = goerr.NewTag("transient")

	// TagAmbiguousState marks the multiple-live-segments anomaly. It is
	// logged as a warning, never returned: reads resolve it
	// deterministically by picking the most recently created segment.
	TagAmbiguousState = goerr.NewTag("ambiguous_state")

	// TagInconsistentReplace marks a replace whose create succeeded but
	// whose delete of the old segment failed. The extra segment is
	// self-healing on the next read, so this is a warning, not a failure.
	TagInconsistentReplace = goerr.NewTag("inconsistent_replace")

	// TagConfiguration marks missing required configuration. Fatal at
	// startup.
	TagConfiguration = goerr.NewTag("configuration")
)
