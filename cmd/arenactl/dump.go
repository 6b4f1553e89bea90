package main

import (
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	arena "github.com/pavanmanishd/stackarena"
)

func newDumpCmd(a *app) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Run the mixed-alignment workload and dump the region",
		Long: `The dump command allocates five frames of 1 to 5 bytes with
alignments 1, 2, 4, 8 and 16, frees the newest four and prints the region
report.

Example:
  arenactl dump
  arenactl dump --arena Scratch --config layout.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRegistry(func(reg *arena.Registry) error {
				tag, err := lookup(reg, name)
				if err != nil {
					return err
				}
				return dumpWorkload(reg, tag, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVar(&name, "arena", "DumpTest", "Region to run against")
	return cmd
}

// dumpWorkload runs the mixed-alignment allocations inside one scope and
// writes the report before the scope rewinds. A nil w skips the report.
func dumpWorkload(reg *arena.Registry, tag arena.Tag, w io.Writer) error {
	s := reg.NewScope(tag)
	defer s.Close()

	for i := uint32(0); i < 5; i++ {
		if _, ok := s.Allocate(i+1, 1<<i); !ok {
			return errors.Errorf("arena %s exhausted at allocation %d", reg.Name(tag), i+1)
		}
	}
	for range 4 {
		s.Free()
	}
	if w == nil {
		return nil
	}
	return s.Dump(w)
}
