package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/odvcencio/got/pkg/repo"
	"github.com/odvcencio/got/pkg/vcserr"
	"github.com/spf13/cobra"
)

func newMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <branch>",
		Short: "Merge a branch into the current branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			branchName := args[0]

			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			current, err := r.CurrentBranch()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "merging %s into %s...\n", branchName, current)

			report, err := r.Merge(branchName)
			if err != nil {
				var conflictErr *vcserr.MergeConflictError
				if errors.As(err, &conflictErr) {
					fmt.Fprintf(out, "merge completed with %d conflict", len(conflictErr.Paths))
					if len(conflictErr.Paths) != 1 {
						fmt.Fprint(out, "s")
					}
					fmt.Fprintln(out)
					for _, p := range conflictErr.Paths {
						fmt.Fprintf(out, "  %s: CONFLICT\n", p)
					}
					fmt.Fprintln(out, "fix conflicts and run got commit")
					return nil
				}
				return err
			}

			if report.AlreadyUpToDate {
				fmt.Fprintln(out, "already up to date")
				return nil
			}

			for _, f := range report.Files {
				printFileReport(out, f)
			}

			short := string(report.MergeCommit)
			if len(short) > 8 {
				short = short[:8]
			}

			if report.FastForward {
				fmt.Fprintf(out, "fast-forward to %s\n", short)
			} else {
				fmt.Fprintln(out, "merge completed cleanly")
				fmt.Fprintf(out, "[%s %s] Merge branch '%s'\n", current, short, branchName)
			}

			return nil
		},
	}
}

func printFileReport(out io.Writer, f repo.FileMergeReport) {
	switch f.Status {
	case "conflict":
		fmt.Fprintf(out, "  %s: CONFLICT — %d conflict", f.Path, f.ConflictCount)
		if f.ConflictCount != 1 {
			fmt.Fprint(out, "s")
		}
		fmt.Fprintln(out)
	case "added":
		fmt.Fprintf(out, "  %s: added\n", f.Path)
	case "deleted":
		fmt.Fprintf(out, "  %s: deleted\n", f.Path)
	default: // "clean"
		fmt.Fprintf(out, "  %s: clean\n", f.Path)
	}
}
