package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"truthlens/internal/services/classifier"
)

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var tableOutput bool

	cmd := &cobra.Command{
		Use:   "classify [text|-]",
		Short: "Classify a piece of news text",
		Long: "Classify a piece of news text. The text is read from the argument, " +
			"or from standard input when the argument is \"-\" or omitted.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			svc, err := ctx.service()
			if err != nil {
				return err
			}

			result := svc.Classify(cmd.Context(), input)

			asJSON := jsonOutput || (!tableOutput && !isTerminal(cmd.OutOrStdout()))
			if asJSON {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), renderResult(result))
			}

			if !result.Success {
				return errors.New(result.Error)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&tableOutput, "table", false, "Print the result as a table even when not on a terminal")
	cmd.MarkFlagsMutuallyExclusive("json", "table")
	return cmd
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read standard input: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func renderResult(result classifier.Result) string {
	if !result.Success {
		rows := [][2]string{{"Status", "failed"}, {"Error", result.Error}}
		if result.Reasoning != "" {
			rows = append(rows, [2]string{"Model reply", result.Reasoning})
		}
		return renderKeyValues(rows)
	}

	rows := [][2]string{
		{"Classification", string(result.Classification)},
		{"Confidence", strconv.Itoa(result.Confidence) + "%"},
		{"Reasoning", result.Reasoning},
	}
	if info := result.ModelInfo; info != nil {
		rows = append(rows,
			[2]string{"Model", info.Model},
			[2]string{"Tokens", fmt.Sprintf("%d prompt / %d generated", info.PromptEvalCount, info.EvalCount)},
			[2]string{"Duration", info.TotalDuration.Round(time.Millisecond).String()},
		)
	}
	return renderKeyValues(rows)
}
