package execution

import (
	"github.com/go-quarry/quarry/internal/util"
)

// FailureInfo captures the cause of a failed stage execution: the error
// message plus the stack of the goroutine that reported it
type FailureInfo struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// CreateFailureInfo builds a FailureInfo from an error, capturing the
// caller's stack
func CreateFailureInfo(err error) *FailureInfo {
	return &FailureInfo{
		Message: err.Error(),
		Stack:   util.GetTrace(),
	}
}
