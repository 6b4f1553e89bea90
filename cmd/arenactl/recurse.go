package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	arena "github.com/pavanmanishd/stackarena"
)

type recurseResult struct {
	Arena  string `json:"arena"`
	Depth  int    `json:"depth"`
	Result uint8  `json:"result"`
	Peak   int    `json:"peak"`
	Used   int    `json:"used"`
}

func newRecurseCmd(a *app) *cobra.Command {
	var (
		name  string
		depth int
	)

	cmd := &cobra.Command{
		Use:   "recurse",
		Short: "Run the binary recursion workload",
		Long: `The recurse command walks a complete binary tree of the given depth,
opening one scope per call and allocating each node's two children in it.
Every scope rewinds on return, so the region must be empty afterwards.

Example:
  arenactl recurse
  arenactl recurse --depth 20 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if depth < 0 {
				return errors.Errorf("depth must not be negative, got %d", depth)
			}
			return a.withRegistry(func(reg *arena.Registry) error {
				tag, err := lookup(reg, name)
				if err != nil {
					return err
				}
				res, err := recurseWorkload(reg, tag, depth)
				if err != nil {
					return err
				}
				if a.jsonOut {
					return printJSON(cmd.OutOrStdout(), res)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "result: %d\npeak: %d\n", res.Result, res.Peak)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&name, "arena", "RecursiveTest", "Region to run against")
	cmd.Flags().IntVar(&depth, "depth", 15, "Tree depth")
	return cmd
}

func recurseWorkload(reg *arena.Registry, tag arena.Tag, depth int) (recurseResult, error) {
	var data uint8
	binaryDepth(reg, tag, depth, &data)

	res := recurseResult{
		Arena:  reg.Name(tag),
		Depth:  depth,
		Result: data,
		Peak:   reg.Peak(tag),
		Used:   reg.Used(tag),
	}
	if res.Used != 0 {
		return res, errors.Errorf("arena %s holds %d bytes after recursion", res.Arena, res.Used)
	}
	return res, nil
}

// binaryDepth counts the nodes of a binary tree of the given depth into
// data, modulo 256. Children that do not fit in the region are skipped.
func binaryDepth(reg *arena.Registry, tag arena.Tag, depth int, data *uint8) {
	s := reg.NewScope(tag)
	defer s.Close()

	*data++
	if depth == 0 {
		return
	}
	left, ok := arena.Alloc[uint8](s)
	if !ok {
		return
	}
	right, ok := arena.Alloc[uint8](s)
	if !ok {
		return
	}
	binaryDepth(reg, tag, depth-1, left)
	binaryDepth(reg, tag, depth-1, right)
	*data += *left + *right
}
