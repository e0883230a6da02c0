package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/retrieval"
)

var kbFlags struct {
	path     string
	category string
	query    string
	topK     int
}

var kbCheckCmd = &cobra.Command{
	Use:   "kb-check",
	Short: "Load the knowledge base and preview retrieval",
	RunE:  runKBCheck,
}

func init() {
	f := kbCheckCmd.Flags()
	f.StringVar(&kbFlags.path, "path", "knowledgebase", "Knowledge base directory or YAML file")
	f.StringVar(&kbFlags.category, "category", "", "Category to rank within")
	f.StringVar(&kbFlags.query, "query", "", "Query text to rank passages against")
	f.IntVar(&kbFlags.topK, "top-k", 3, "Passages to show per band")
}

func runKBCheck(cmd *cobra.Command, _ []string) error {
	kb, err := retrieval.Load(kbFlags.path)
	if err != nil {
		return err
	}
	ix := retrieval.NewIndex(kb)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Passages: %d\n", ix.Len())
	for _, s := range kb.Sections {
		fmt.Fprintf(out, "  %s: %d\n", s.Category, len(s.Passages))
	}

	if kbFlags.query == "" {
		return nil
	}
	ranked := ix.Rank(domain.Category(kbFlags.category), kbFlags.query)
	passages := make([]string, len(ranked))
	for i, r := range ranked {
		passages[i] = r.Passage
	}
	for attempt, label := range []string{"First attempt", "Retry band"} {
		fmt.Fprintf(out, "%s:\n", label)
		for _, p := range retrieval.SelectBand(passages, kbFlags.topK, attempt, false) {
			fmt.Fprintf(out, "  - %s\n", p)
		}
	}
	return nil
}
