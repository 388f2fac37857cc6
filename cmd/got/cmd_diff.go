package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/odvcencio/got/pkg/repo"
	"github.com/spf13/cobra"
)

// newDiffCmd reports which paths changed, not how, by default: the engine
// itself has no line-level diff algorithm, only whole-blob equality. With
// --lines this command reads both sides of a changed text file off disk (or
// out of the object store, for --staged) and renders a unified diff purely
// as a presentation aid; it never feeds that diff back into merge or commit.
func newDiffCmd() *cobra.Command {
	var staged bool
	var lines bool

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show changed paths between working tree, index, and HEAD",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			entries, err := r.Status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			any := false
			for _, e := range entries {
				status := e.WorkStatus
				if staged {
					status = e.IndexStatus
				}

				switch status {
				case repo.StatusNew:
					fmt.Fprintf(out, "added:    %s\n", filepath.ToSlash(e.Path))
					any = true
				case repo.StatusModified:
					fmt.Fprintf(out, "changed:  %s\n", filepath.ToSlash(e.Path))
					any = true
					if lines {
						printUnifiedDiff(out, r, e.Path, staged)
					}
				case repo.StatusDeleted:
					fmt.Fprintf(out, "deleted:  %s\n", filepath.ToSlash(e.Path))
					any = true
				case repo.StatusConflict:
					fmt.Fprintf(out, "conflict: %s\n", filepath.ToSlash(e.Path))
					any = true
				}
			}

			if !any {
				fmt.Fprintln(out, "no differences")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&staged, "staged", false, "compare the index against HEAD instead of the working tree against the index")
	cmd.Flags().BoolVar(&lines, "lines", false, "also print a unified line diff for modified text files")

	return cmd
}

// printUnifiedDiff shows a best-effort line diff for a path reported as
// modified. Without --staged that's the index against the working tree;
// with --staged it's HEAD against the index. Binary content (a NUL byte in
// either side) is skipped rather than dumped as noise.
func printUnifiedDiff(out io.Writer, r *repo.Repo, relPath string, staged bool) {
	var a, b []byte
	var err error

	if staged {
		if a, err = r.HeadBlob(relPath); err != nil {
			a = nil
		}
		if b, err = r.StagedBlob(relPath); err != nil {
			return
		}
	} else {
		if a, err = r.StagedBlob(relPath); err != nil {
			return
		}
		if b, err = os.ReadFile(filepath.Join(r.RootDir, relPath)); err != nil {
			return
		}
	}

	if looksBinary(a) || looksBinary(b) {
		return
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a)),
		B:        difflib.SplitLines(string(b)),
		FromFile: "a/" + filepath.ToSlash(relPath),
		ToFile:   "b/" + filepath.ToSlash(relPath),
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil || text == "" {
		return
	}
	fmt.Fprint(out, text)
}

func looksBinary(data []byte) bool {
	limit := len(data)
	if limit > 8000 {
		limit = 8000
	}
	for _, b := range data[:limit] {
		if b == 0 {
			return true
		}
	}
	return false
}
