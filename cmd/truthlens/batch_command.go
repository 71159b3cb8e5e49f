package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"truthlens/internal/ingest"
	"truthlens/internal/services/classifier"
)

type batchItem struct {
	Source string            `json:"source"`
	Title  string            `json:"title,omitempty"`
	Result classifier.Result `json:"result"`
}

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "batch <file|dir>",
		Short: "Classify every article in a JSON or text file, or a directory of them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			articles, err := ingest.Load(args[0])
			if err != nil {
				return err
			}
			if len(articles) == 0 {
				return fmt.Errorf("no articles found in %s", args[0])
			}

			svc, err := ctx.service()
			if err != nil {
				return err
			}

			items := make([]batchItem, 0, len(articles))
			for start := 0; start < len(articles); start += svc.BatchMaxItems() {
				chunk := articles[start:min(start+svc.BatchMaxItems(), len(articles))]
				texts := make([]string, len(chunk))
				for i, a := range chunk {
					texts[i] = a.Text
				}
				results, err := svc.ClassifyBatch(cmd.Context(), texts)
				if err != nil {
					return err
				}
				for i, r := range results {
					items = append(items, batchItem{Source: chunk[i].Source, Title: chunk[i].Title, Result: r})
				}
				if err := cmd.Context().Err(); err != nil {
					return err
				}
			}

			if jsonOutput || !isTerminal(cmd.OutOrStdout()) {
				if err := writeJSON(cmd, items); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), renderBatch(items))
			}

			failed := 0
			for _, item := range items {
				if !item.Result.Success {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d articles could not be classified", failed, len(items))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	return cmd
}

func renderBatch(items []batchItem) string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		label := item.Source
		if item.Title != "" {
			label = item.Title
		}
		if !item.Result.Success {
			rows = append(rows, []string{label, "ERROR", "", item.Result.Error})
			continue
		}
		rows = append(rows, []string{
			label,
			string(item.Result.Classification),
			strconv.Itoa(item.Result.Confidence),
			item.Result.Reasoning,
		})
	}
	return renderTable(
		[]string{"Article", "Verdict", "Confidence", "Reasoning"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	)
}
