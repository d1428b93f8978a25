package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/eventlog"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/scenario"
)

var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Play a scripted encounter",
	Long:  `Run loads a YAML scenario, plays every step through the combat engine and publishes the encounter's events to the configured sink.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runScenario,
}

func init() {
	flags := runCmd.Flags()
	flags.Uint64("seed", 0, "dice seed; 0 uses crypto randomness")
	flags.String("sink", "log", "event sink: log, postgres, redis")
	flags.Bool("no-massive-damage", false, "disable instant death from massive damage")
	mustBind("rules.seed", flags.Lookup("seed"))
	mustBind("sink.kind", flags.Lookup("sink"))
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := scenario.LoadFile(args[0])
	if err != nil {
		return err
	}
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	sink, err := a.sink(ctx)
	if err != nil {
		return err
	}

	opts := combat.DefaultOptions()
	opts.MassiveDamage = a.cfg.Rules.MassiveDamage
	if off, _ := cmd.Flags().GetBool("no-massive-damage"); off {
		opts.MassiveDamage = false
	}
	runner := scenario.NewRunner(a.library, a.roller, eventlog.NewPublisher(sink, a.logger), a.logger, opts)

	a.logger.Info("running scenario",
		zap.String("scenario", sc.Name),
		zap.String("sink", a.cfg.Sink.Kind),
		zap.Int("steps", len(sc.Steps)),
	)
	report, err := runner.Run(ctx, sc)
	printReport(cmd.OutOrStdout(), sc, report)
	return err
}

func printReport(w io.Writer, sc *scenario.Scenario, report scenario.Report) {
	fmt.Fprintf(w, "%s (encounter %s)\n", sc.Name, report.EncounterID)
	for _, st := range report.Steps {
		fmt.Fprintf(w, "%3d. %-16s %s\n", st.Index, st.Action, st.Summary)
	}
	if report.Final.ID == "" {
		return
	}
	fmt.Fprintf(w, "\nround %d, %s\n", report.Final.Round, report.Final.Status)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tINIT\tHP\tTEMP\tSTATE\tSPEED\tCONDITIONS")
	for _, p := range report.Final.Participants {
		var conds []string
		for _, c := range p.Conditions {
			conds = append(conds, c.Name)
		}
		state := p.Health.State.String()
		if !p.IsActive {
			state += " (" + p.InactiveReason + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d/%d\t%d\t%s\t%d\t%v\n",
			p.ID, p.Name, p.Initiative, p.Health.CurrentHP, p.Health.MaxHP, p.Health.TempHP, state, p.Speed, conds)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\npublished %d events, %d damage records\n", report.Events, report.Damage)
}
