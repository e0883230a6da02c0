package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spec-kit/ticket-triage/internal/service"
)

var processFlags struct {
	subject     string
	description string
	asJSON      bool
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run one ticket through the workflow",
	RunE:  runProcess,
}

func init() {
	f := processCmd.Flags()
	f.StringVar(&processFlags.subject, "subject", "", "Ticket subject")
	f.StringVar(&processFlags.description, "description", "", "Ticket description")
	f.BoolVar(&processFlags.asJSON, "json", false, "Print the full final state as JSON")
}

func runProcess(cmd *cobra.Command, _ []string) error {
	a, closeApp, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp()

	res, err := a.Triage.ProcessTicket(cmd.Context(), service.TicketInput{
		Subject:     processFlags.subject,
		Description: processFlags.description,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if processFlags.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	st := res.State
	fmt.Fprintf(out, "Run:      %s\n", res.RunID)
	fmt.Fprintf(out, "Status:   %s\n", st.ReviewStatus)
	fmt.Fprintf(out, "Category: %s\n", st.Category)
	for _, d := range st.Drafts {
		fmt.Fprintf(out, "Draft %d:\n  %s\n", d.Attempt, strings.ReplaceAll(d.Value, "\n", "\n  "))
	}
	for _, f := range st.Feedback {
		fmt.Fprintf(out, "Feedback %d: %s\n", f.Attempt, f.Value)
	}
	if res.Error != "" {
		fmt.Fprintf(out, "Warning:  %s\n", res.Error)
	}
	return nil
}
