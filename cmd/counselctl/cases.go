// cmd/counselctl/cases.go
package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"counsel-workers/internal/models"
	"counsel-workers/internal/store"
)

var (
	caseFilter  models.CaseFilter
	caseStatus  string
	queueOrder  bool
	auditLimit  int
	auditViewer string
)

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Browse the lead pipeline",
}

var casesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cases, optionally as a prioritised work queue",
	RunE: func(cmd *cobra.Command, _ []string) error {
		filter := caseFilter
		if caseStatus != "" {
			filter.Status = models.CaseStatus(caseStatus)
			if !filter.Status.Valid() {
				return fmt.Errorf("unknown status %q", caseStatus)
			}
		}

		ctx := cmd.Context()
		s, err := openStores(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		cases, err := store.NewCaseStore(s.pg.DB, log).ListCases(ctx, filter)
		if err != nil {
			return err
		}
		if queueOrder {
			store.SortWorkQueue(cases)
		}
		return writeQueue(cmd.OutOrStdout(), cases, time.Now())
	},
}

var casesAuditCmd = &cobra.Command{
	Use:   "audit <case-id>",
	Short: "Show the audit trail of a case",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStores(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		audit := store.NewAuditLog(s.pg.DB, log)
		if auditViewer != "" {
			audit.Record(ctx, auditViewer, models.AuditViewCase, args[0], nil)
		}
		entries, err := audit.ForCase(ctx, args[0], auditLimit)
		if err != nil {
			return err
		}
		return printJSON(cmd, entries)
	},
}

func writeQueue(out io.Writer, cases []models.Case, now time.Time) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CASE\tSTATUS\tAGE\tSTUDENT\tLEAD\tASSIGNED")
	for _, c := range cases {
		lead := c.LeadStatus
		if c.LeadScore != nil {
			lead = fmt.Sprintf("%s (%d)", lead, *c.LeadScore)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Status, c.AgeTag(now), c.StudentName, orDash(lead), orDash(c.AssignedTo))
	}
	return w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	f := casesListCmd.Flags()
	f.StringVar(&caseStatus, "status", "", "only cases in this status")
	f.StringVar(&caseFilter.AssignedTo, "assigned-to", "", "only cases owned by this user ID")
	f.BoolVar(&caseFilter.UnassignedOnly, "unassigned", false, "only cases without an owner")
	f.StringVar(&caseFilter.Destination, "destination", "", "only cases listing this destination")
	f.BoolVar(&queueOrder, "queue", false, "order by status priority, then oldest first")

	casesAuditCmd.Flags().IntVar(&auditLimit, "limit", 50, "maximum entries")
	casesAuditCmd.Flags().StringVar(&auditViewer, "as", "", "record a VIEW_CASE entry for this user ID")

	casesCmd.AddCommand(casesListCmd, casesAuditCmd)
	rootCmd.AddCommand(casesCmd)
}
