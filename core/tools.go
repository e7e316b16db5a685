package session

import (
	"context"

	"github.com/lumastream/live-core/core/protocol"
)

// CompletionResult is the structured outcome the model reports through the
// default completion tool.
type CompletionResult struct {
	Score    int    `json:"score" jsonschema:"description=Overall score from 0 to 100"`
	Feedback string `json:"feedback" jsonschema:"description=Short feedback summarizing the session"`
}

// completionToolName is the function the model calls to close out a session
// with a structured result.
const completionToolName = "complete_session"

func defaultCompletionTool(onCompletion func(CompletionResult)) protocol.Tool {
	return protocol.NewToolFor(completionToolName,
		"Report the final score and feedback once the session objective is met",
		func(_ context.Context, result CompletionResult) (any, error) {
			if onCompletion != nil {
				onCompletion(result)
			}
			return map[string]any{"acknowledged": true}, nil
		},
	)
}
