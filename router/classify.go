package router

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/m4xw311/askai/errors"
	"github.com/m4xw311/askai/llm"
	"github.com/m4xw311/askai/session"
	"go.uber.org/zap"
)

const classificationPrompt = `Classify the following user query as SIMPLE or COMPLEX.

SIMPLE: greetings, short factual lookups, definitions, single-step requests.
COMPLEX: multi-step reasoning, code generation or review, analysis, planning, long-form writing.

Respond with exactly these two lines and nothing else:
CLASSIFICATION: SIMPLE or COMPLEX
CONFIDENCE: a number between 0.0 and 1.0

Query: %s`

var (
	classificationLine = regexp.MustCompile(`(?i)CLASSIFICATION:\s*(SIMPLE|COMPLEX)\b`)
	confidenceLine     = regexp.MustCompile(`(?i)CONFIDENCE:\s*([0-9]*\.?[0-9]+)`)
)

// Classify asks the light model whether question is SIMPLE or COMPLEX. It
// never fails: a provider error or an unparseable reply is logged and yields
// COMPLEX at confidence 1.0.
func Classify(ctx context.Context, client llm.LLMClient, model, question string, logger *zap.Logger) Classification {
	if logger == nil {
		logger = zap.NewNop()
	}
	reply, err := client.Complete(ctx, model, []session.Message{
		{Role: session.RoleUser, Content: fmt.Sprintf(classificationPrompt, question)},
	}, llm.Options{Temperature: llm.Temperature(0), MaxTokens: 50})
	if err != nil {
		logger.Warn("classification request failed, assuming complex", zap.Error(err))
		return defaultClassification()
	}

	c, err := ParseClassification(reply)
	if err != nil {
		logger.Warn("could not parse classification, assuming complex",
			zap.Error(err), zap.String("reply", reply))
		return defaultClassification()
	}
	return c
}

// ParseClassification reads the CLASSIFICATION and CONFIDENCE lines of a
// classifier reply. Both must be present and the confidence must lie in
// [0, 1]; otherwise it returns errors.ErrClassificationParse.
func ParseClassification(reply string) (Classification, error) {
	m := classificationLine.FindStringSubmatch(reply)
	if m == nil {
		return Classification{}, errors.Mark(errors.ErrClassificationParse, nil, "no CLASSIFICATION line")
	}
	isComplex := strings.EqualFold(m[1], "COMPLEX")

	m = confidenceLine.FindStringSubmatch(reply)
	if m == nil {
		return Classification{}, errors.Mark(errors.ErrClassificationParse, nil, "no CONFIDENCE line")
	}
	confidence, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Classification{}, errors.Mark(errors.ErrClassificationParse, err, "bad confidence %q", m[1])
	}
	if confidence < 0 || confidence > 1 {
		return Classification{}, errors.Mark(errors.ErrClassificationParse, nil, "confidence %g out of range", confidence)
	}

	return Classification{IsComplex: isComplex, Confidence: confidence}, nil
}

func defaultClassification() Classification {
	return Classification{IsComplex: true, Confidence: 1.0}
}
