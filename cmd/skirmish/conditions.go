package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
)

var conditionsCmd = &cobra.Command{
	Use:   "conditions [name]",
	Short: "List the condition library, or describe one condition",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		w := cmd.OutOrStdout()
		if len(args) == 1 {
			def, ok := a.library.Get(args[0])
			if !ok {
				return fmt.Errorf("unknown condition %q", args[0])
			}
			fmt.Fprintf(w, "%s (%s)\n%s\n", def.Name, def.ID, strings.TrimSpace(def.Description))
			for _, e := range def.Effects {
				fmt.Fprintf(w, "  - %s\n", describeEffect(e))
			}
			if len(def.Supersedes) > 0 {
				fmt.Fprintf(w, "supersedes: %s\n", strings.Join(def.Supersedes, ", "))
			}
			if len(def.IncompatibleWith) > 0 {
				fmt.Fprintf(w, "incompatible with: %s\n", strings.Join(def.IncompatibleWith, ", "))
			}
			return nil
		}

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tEFFECTS")
		for _, def := range a.library.All() {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", def.ID, def.Name, len(def.Effects))
		}
		return tw.Flush()
	},
}

func describeEffect(e condition.Effect) string {
	switch e := e.(type) {
	case condition.SpeedSet:
		return fmt.Sprintf("%s %d", e.Kind(), e.Feet)
	case condition.SpeedDelta:
		return fmt.Sprintf("%s %+d", e.Kind(), e.Feet)
	case condition.AutoFailSave:
		return fmt.Sprintf("%s %v", e.Kind(), e.Abilities)
	case condition.SaveDisadvantage:
		return fmt.Sprintf("%s %v", e.Kind(), e.Abilities)
	case condition.Custom:
		if e.Value == nil {
			return e.Key
		}
		return fmt.Sprintf("%s %v", e.Key, e.Value)
	}
	return string(e.Kind())
}
