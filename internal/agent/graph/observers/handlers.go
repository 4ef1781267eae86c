package observers

import (
	einocb "github.com/cloudwego/eino/callbacks"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"
)

// NewAllCallbacks returns the observer handlers attached to every workflow run:
// one for chat model and prompt components, one for graph nodes.
func NewAllCallbacks() []einocb.Handler {
	components := callbackHelper.NewHandlerHelper().
		ChatModel(newModelHandler()).
		Prompt(newPromptHandler()).
		Handler()

	return []einocb.Handler{components, newNodeHandler()}
}
