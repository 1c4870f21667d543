package entityextract

import "errors"

// ErrInternalFault marks an error recovered by the orchestrator's fault
// barrier: something escaped every component's own error handling and
// was caught at the outermost level.
var ErrInternalFault = errors.New("entityextract: internal fault")
