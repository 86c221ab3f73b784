package router

import (
	"context"
	"fmt"

	"github.com/m4xw311/askai/errors"
	"github.com/m4xw311/askai/llm"
	"github.com/m4xw311/askai/session"
	"go.uber.org/zap"
)

const summaryPrompt = "Using the reasoning above, write the final answer to the original question. " +
	"Answer directly; do not describe the reasoning process. " +
	"If an operation is needed, include its agent token."

// Refinement is the result of a reasoning loop.
type Refinement struct {
	Answer string
	// Steps holds each iteration's reply in order.
	Steps []string
}

// step returns the prompt for iteration i (1-based) of n.
func step(i, n int) string {
	if i == 1 {
		return fmt.Sprintf("Reasoning iteration %d of %d: think through the question above step by step. "+
			"Identify what is being asked and work towards an answer.", i, n)
	}
	return fmt.Sprintf("Reasoning iteration %d of %d: critically review your previous reasoning. "+
		"Correct any mistakes, fill in gaps, and refine the answer.", i, n)
}

// Refine runs iterations sequential self-refinement turns against model,
// then a summary turn whose reply is the answer. Each turn sees every earlier
// turn. A provider error aborts the loop.
func (r *Router) Refine(ctx context.Context, client llm.LLMClient, model string, messages []session.Message, iterations int) (Refinement, error) {
	if iterations < 1 {
		iterations = 1
	}
	conversation := make([]session.Message, len(messages), len(messages)+2*iterations+1)
	copy(conversation, messages)

	var res Refinement
	for i := 1; i <= iterations; i++ {
		conversation = append(conversation, session.Message{Role: session.RoleUser, Content: step(i, iterations)})
		reply, err := client.Complete(ctx, model, conversation, llm.Options{})
		if err != nil {
			return res, errors.Wrapf(err, "reasoning iteration %d of %d", i, iterations)
		}
		r.logger.Debug("reasoning step", zap.Int("iteration", i), zap.Int("of", iterations), zap.Int("chars", len(reply)))
		conversation = append(conversation, session.Message{Role: session.RoleAssistant, Content: reply})
		res.Steps = append(res.Steps, reply)
	}

	conversation = append(conversation, session.Message{Role: session.RoleUser, Content: summaryPrompt})
	answer, err := client.Complete(ctx, model, conversation, llm.Options{})
	if err != nil {
		return res, errors.Wrapf(err, "reasoning summary")
	}
	res.Answer = answer
	return res, nil
}
