// Package agent drives a conversation between the user, a model, and the
// local machine.
//
// An Agent owns the configuration, the session history, and the provider
// client. Each question goes through Ask:
//
//   - the question is appended to the session history
//   - the router picks the light or powerful model of the provider
//   - the model sees a system prompt describing the operation grammar,
//     followed by the most recent history
//   - operations embedded in the reply are confirmed and executed one at a
//     time by the Pipeline
//   - the annotated reply replaces the raw one in history and the session
//     is saved
//
// # Callbacks
//
// The ProcessCallbacks structure lets an interaction mode customise how agent
// events are handled. The terminal package prints them and asks for
// confirmation on stdin; tests script them.
//
//	callbacks := agent.ProcessCallbacks{
//	    OnAssistantMessage: func(message string) { fmt.Println(message) },
//	    ShouldExecute: func(req agentop.Request) bool {
//	        return confirm(req.Intent(), req.Payload)
//	    },
//	    OnOperationResult: func(req agentop.Request, res agent.OperationResult, err error) {
//	        // show output or error
//	    },
//	}
//	err := a.Ask(ctx, "what is in notes.txt?", false, callbacks)
//
// # Shortcut
//
// When the user answers a reply that still holds an unresolved token with a
// bare "y" or "yes", RunPending executes the first such token without another
// prompt and asks the model to explain the result.
//
// # Subpackages
//
// agent/terminal: the interactive command-line interface.
package agent
