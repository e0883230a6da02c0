package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var escalationsFlags struct {
	limit  int
	offset int
}

var escalationsCmd = &cobra.Command{
	Use:   "escalations",
	Short: "List tickets escalated to human support",
	RunE:  runEscalations,
}

func init() {
	f := escalationsCmd.Flags()
	f.IntVar(&escalationsFlags.limit, "limit", 50, "Maximum rows to show (0 for all)")
	f.IntVar(&escalationsFlags.offset, "offset", 0, "Rows to skip")
}

func runEscalations(cmd *cobra.Command, _ []string) error {
	a, closeApp, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp()

	rows, err := a.Triage.ListEscalations(cmd.Context(), escalationsFlags.limit, escalationsFlags.offset)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(out, "No escalations.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SUBJECT\tCATEGORIES\tFEEDBACK")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Subject, r.FinalCategory, r.ReviewFeedbacks)
	}
	return tw.Flush()
}
