package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HarshdeepGupta/diabe-ai-buddy/internal/config"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a single question from the command line",
	Long: `Answer a single question from the command line.

Builds the topic indices, runs the question through the pipeline, and
prints the answer with suggested follow-ups.

Examples:
  diabuddy ask "What should my fasting glucose be?"
  diabuddy ask --topic meal "Is brown rice better than white rice?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		topic, _ := cmd.Flags().GetString("topic")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		setupLogging(cfg.Log.Level)

		agent, _ := buildAgent(cfg)

		printStep("Thinking...")
		res, err := agent.AnswerQuestion(cmd.Context(), question, topic, nil)
		if err != nil {
			return fmt.Errorf("answering question: %w", err)
		}

		fmt.Printf("\n%s %s\n\n", colorize(colorBold, "Topic:"), res.Topic)
		fmt.Println(res.Answer)
		if res.NeedsMoreContext {
			printWarning("Answered from general knowledge; source retrieval was unavailable.")
		}
		if len(res.Followups) > 0 {
			fmt.Printf("\n%s\n", colorize(colorBold, "You could also ask:"))
			for _, f := range res.Followups {
				fmt.Printf("  %s %s\n", colorize(colorCyan, "•"), f)
			}
		}
		return nil
	},
}

func init() {
	askCmd.Flags().String("topic", "", "topic hint: glucose, medication, meal, wellness, or general")
}
