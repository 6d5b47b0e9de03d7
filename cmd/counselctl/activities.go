// cmd/counselctl/activities.go
package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"counsel-workers/pkg/registry"
)

var (
	registryPath  string
	activityInput string
	setID         string
	setField      string
	setValue      string
)

var activitiesCmd = &cobra.Command{
	Use:   "activities",
	Short: "Inspect the worker activity registry",
}

var activitiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered job types",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TASK TYPE\tCATEGORY\tTIMEOUT\tRETRIES\tSTATUS")
		for _, a := range reg.Activities {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", a.TaskType, a.Category, a.Timeout, a.Retries, a.ImplementationStatus)
		}
		return w.Flush()
	},
}

var activitiesValidateCmd = &cobra.Command{
	Use:   "validate <task-type>",
	Short: "Validate job variables against a task type's input schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return err
		}
		a, ok := reg.Find(args[0])
		if !ok {
			return fmt.Errorf("unknown task type %q", args[0])
		}

		raw, err := readInput(cmd, activityInput)
		if err != nil {
			return err
		}
		var doc interface{}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("decode input: %w", err)
		}

		res, err := a.ValidateInput(doc)
		if err != nil {
			return err
		}
		if err := printJSON(cmd, res); err != nil {
			return err
		}
		return res.Err()
	},
}

var activitiesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the registry for missing fields and bad timeouts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return err
		}
		if err := reg.Check(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "registry ok: %d activities\n", len(reg.Activities))
		return nil
	},
}

var activitiesSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update one field of an activity",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return err
		}
		if err := reg.Update(setID, setField, setValue); err != nil {
			return err
		}
		if err := reg.Save(registryPath, time.Now()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated %s.%s = %s\n", setID, setField, setValue)
		return nil
	},
}

func init() {
	activitiesCmd.PersistentFlags().StringVar(&registryPath, "registry", registry.DefaultPath, "activity registry file")
	activitiesValidateCmd.Flags().StringVar(&activityInput, "input", "-", "job variables JSON file (- for stdin)")
	activitiesSetCmd.Flags().StringVar(&setID, "id", "", "activity ID")
	activitiesSetCmd.Flags().StringVar(&setField, "field", "", "status, version, displayName, description, timeout or retries")
	activitiesSetCmd.Flags().StringVar(&setValue, "value", "", "new value")
	for _, f := range []string{"id", "field", "value"} {
		_ = activitiesSetCmd.MarkFlagRequired(f)
	}
	activitiesCmd.AddCommand(activitiesListCmd, activitiesValidateCmd, activitiesCheckCmd, activitiesSetCmd)
	rootCmd.AddCommand(activitiesCmd)
}
