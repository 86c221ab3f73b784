package agent

import (
	"github.com/m4xw311/askai/agentop"
)

// ProcessCallbacks lets an interaction mode observe and steer an ask cycle.
// Any callback may be nil. A nil ShouldExecute declines every operation.
type ProcessCallbacks struct {
	// OnAssistantMessage receives the model reply as returned, before any
	// operation in it is resolved.
	OnAssistantMessage func(message string)
	// OnReasoningStep receives each intermediate reasoning reply when step
	// display is enabled.
	OnReasoningStep func(iteration, total int, content string)
	// OnOperation is called when an operation is about to be considered.
	OnOperation func(req agentop.Request)
	// ShouldExecute asks the user to confirm an operation.
	ShouldExecute func(req agentop.Request) bool
	// OnOperationResult reports the outcome of an operation. err is set when
	// the operation was refused or failed.
	OnOperationResult func(req agentop.Request, result OperationResult, err error)
	// OnWarning reports non-fatal problems such as a failed session save.
	OnWarning func(warning string)
}

func (c ProcessCallbacks) assistantMessage(message string) {
	if c.OnAssistantMessage != nil {
		c.OnAssistantMessage(message)
	}
}

func (c ProcessCallbacks) reasoningStep(iteration, total int, content string) {
	if c.OnReasoningStep != nil {
		c.OnReasoningStep(iteration, total, content)
	}
}

func (c ProcessCallbacks) operation(req agentop.Request) {
	if c.OnOperation != nil {
		c.OnOperation(req)
	}
}

func (c ProcessCallbacks) shouldExecute(req agentop.Request) bool {
	return c.ShouldExecute != nil && c.ShouldExecute(req)
}

func (c ProcessCallbacks) operationResult(req agentop.Request, result OperationResult, err error) {
	if c.OnOperationResult != nil {
		c.OnOperationResult(req, result, err)
	}
}

func (c ProcessCallbacks) warning(warning string) {
	if c.OnWarning != nil {
		c.OnWarning(warning)
	}
}
