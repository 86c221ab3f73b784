// Package terminal provides the interactive command-line interface for the
// agent.
//
// Input is read with a line editor that keeps history for the session.
// Plain lines are questions for the model. Lines starting with a slash are
// commands:
//
//	/exit, /quit, /end        leave
//	/clear                    forget the conversation
//	/cls, /clearscreen        clear the screen
//	/help                     list the commands
//	/menu [key=value ...]     show or change settings
//	/d QUESTION               skip routing and ask the powerful model
//	/fs ACTION:PATH[:CONTENT] run a file operation directly
//	/exec COMMAND             run a shell command directly
//
// Commands are case-insensitive. A bare "y" or "yes" after a reply that
// still contains an operation token runs that operation.
//
// Operations suggested by the model are shown one at a time and each needs a
// "y" at the "Do you want to allow this? (y/n)" prompt. Ctrl-C at any prompt
// ends the session with ErrInterrupted.
//
// Usage:
//
//	term := terminal.New(a)
//	if err := term.Run(ctx, initialPrompt); err != nil {
//	    // handle error
//	}
package terminal
