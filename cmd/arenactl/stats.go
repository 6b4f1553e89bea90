package main

import (
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	arena "github.com/pavanmanishd/stackarena"
)

type statsReport struct {
	Backing     string                `json:"backing"`
	Capacity    int                   `json:"capacity"`
	Used        int                   `json:"used"`
	Utilization float64               `json:"utilization"`
	Regions     []arena.RegionMetrics `json:"regions"`
}

func newStatsCmd(a *app) *cobra.Command {
	var workload bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-region statistics",
		Long: `The stats command initializes the registry and prints capacity, usage,
peak usage and open frames for every region.

With --workload the dump and recursion workloads run first against the
DumpTest and RecursiveTest regions, when the layout declares them, so the
peaks reflect real use.

Example:
  arenactl stats
  arenactl stats --workload --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRegistry(func(reg *arena.Registry) error {
				if workload {
					if err := runWorkloads(reg); err != nil {
						return err
					}
				}
				report := statsReport{
					Backing:     reg.Backing().String(),
					Capacity:    reg.TotalCapacity(),
					Used:        reg.TotalUsed(),
					Utilization: reg.TotalUtilization(),
					Regions:     reg.Snapshot(),
				}
				if a.jsonOut {
					return printJSON(cmd.OutOrStdout(), report)
				}
				return printStats(cmd.OutOrStdout(), report)
			})
		},
	}
	cmd.Flags().BoolVar(&workload, "workload", false, "Run the built-in workloads before reporting")
	return cmd
}

func runWorkloads(reg *arena.Registry) error {
	if tag, ok := reg.Lookup("DumpTest"); ok {
		if err := dumpWorkload(reg, tag, nil); err != nil {
			return err
		}
	}
	if tag, ok := reg.Lookup("RecursiveTest"); ok {
		if _, err := recurseWorkload(reg, tag, 15); err != nil {
			return err
		}
	}
	return nil
}

func printStats(w io.Writer, report statsReport) error {
	p := message.NewPrinter(language.English)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	p.Fprintf(tw, "ARENA\tCAPACITY\tUSED\tFREE\tPEAK\tFRAMES\tSCOPES\tUTIL\n")
	for _, m := range report.Regions {
		p.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%.1f%%\n",
			m.Name, m.Capacity, m.Used, m.Free, m.Peak, m.OpenFrames, m.Depth, m.Utilization*100)
	}
	p.Fprintf(tw, "total\t%d\t%d\t%d\t\t\t\t%.1f%%\n",
		report.Capacity, report.Used, report.Capacity-report.Used, report.Utilization*100)
	p.Fprintf(tw, "\nbacking: %s\n", report.Backing)
	return tw.Flush()
}
