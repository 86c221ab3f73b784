// Package agentop implements the textual protocol by which a model reply
// embeds file-system and shell operations.
//
// A reply carries operations as tokens:
//
//	{{agent:fs:ACTION:PATH[:CONTENT]}}
//	{{agent:exec:COMMAND}}
//
// Once handled, a token is replaced in the stored reply by one of the
// annotations
//
//	(Executed: PAYLOAD)
//	(Command not executed: PAYLOAD)
//
// Models echo these annotations back, so the "(Executed: ...)" form is also
// recognised as an operation; its kind is inferred from the payload.
package agentop

import (
	"github.com/m4xw311/askai/tools"
)

const (
	tokenOpen        = "{{agent:"
	tokenClose       = "}}"
	executedOpen     = "(Executed: "
	notExecutedOpen  = "(Command not executed: "
	annotationClose  = ")"
	typeFilesystem   = "fs"
	typeShell        = "exec"
	payloadSeparator = ":"
)

// Kind classifies an operation request.
type Kind string

const (
	KindFilesystem Kind = "filesystem"
	KindShell      Kind = "shell"
)

// Operation is either a FileOperation or a ShellOperation.
type Operation interface {
	Kind() Kind
	isOperation()
}

// FileOperation is a parsed filesystem payload. Path has already been
// confined to the document root.
type FileOperation struct {
	Action     tools.FileAction
	Path       string
	Content    string
	HasContent bool
}

func (FileOperation) Kind() Kind { return KindFilesystem }
func (FileOperation) isOperation() {}

// ShellOperation is a command line to run through the shell.
type ShellOperation struct {
	CommandLine string
}

func (ShellOperation) Kind() Kind { return KindShell }
func (ShellOperation) isOperation() {}

// Request is one operation found in a reply.
type Request struct {
	Op Operation
	// Payload is the raw text after the type prefix, exactly as written.
	Payload string
	// Span is the full matched token; Start and End are its byte offsets.
	Span       string
	Start, End int
	// Legacy is set for requests parsed from an "(Executed: ...)" annotation.
	Legacy bool
}

func (r Request) Kind() Kind { return r.Op.Kind() }

// Intent is the human-readable verb shown when asking for confirmation.
func (r Request) Intent() string {
	if r.Kind() == KindFilesystem {
		return "access file"
	}
	return "run command"
}

// Executed is the annotation recorded once an operation has been attempted.
func Executed(payload string) string {
	return executedOpen + payload + annotationClose
}

// NotExecuted is the annotation recorded for a declined operation.
func NotExecuted(payload string) string {
	return notExecutedOpen + payload + annotationClose
}
