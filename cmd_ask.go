package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
)

var askHistory []string

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Run one message through the workflow and print the response",
	Long: `Run one message through the workflow and print the response as JSON.

Examples:
  intent-router ask "Show me floral shirts under 2000"
  intent-router ask --history "user:I want a shirt" --history "agent:Which colour?" "blue please"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringArrayVar(&askHistory, "history", nil,
		"Earlier turn as source:content (repeatable, oldest first)")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := buildApp(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	req := model.ChatRequest{Messages: parseHistory(askHistory)}
	req.Messages = append(req.Messages, model.ChatTurn{Source: model.SourceUser, Content: strings.Join(args, " ")})

	resp := a.runner.Handle(cmd.Context(), req)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// parseHistory reads "source:content" turns; a turn without a source is a user turn.
func parseHistory(turns []string) []model.ChatTurn {
	out := make([]model.ChatTurn, 0, len(turns))
	for _, t := range turns {
		source, content, ok := strings.Cut(t, ":")
		if !ok {
			source, content = model.SourceUser, t
		}
		out = append(out, model.ChatTurn{Source: strings.TrimSpace(source), Content: content})
	}
	return out
}
