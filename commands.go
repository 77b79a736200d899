package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// colorOut is the single point of control for whether ANSI escapes reach
// the terminal: colorable.NewColorable wraps stdout for Windows consoles,
// and color.NoColor is forced on when the result isn't a real TTY so
// piped/redirected output stays plain.
var colorOut = colorable.NewColorableStdout()

func init() {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

// mustRepo discovers the repository rooted at the process's current
// directory or exits the process with a message, the same way every
// handler aborts via log.Fatal on a setup failure.
func mustRepo() *Repository {
	repo, err := discoverRepository(".")
	if err != nil {
		log.Fatal(err)
	}
	return repo
}

func nowTimestamp() string {
	return time.Now().Format(time.RFC1123Z)
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   vcsName,
		Short: vcsName + " is a minimal distributed version-control tool",
	}

	root.AddCommand(
		newInitCommand(),
		newAddCommand(),
		newRmCommand(),
		newCommitCommand(),
		newBranchCommand(),
		newCheckoutCommand(),
		newDiffCommand(),
		newRemoteCommand(),
		newFetchCommand(),
		newMergeCommand(),
		newPullCommand(),
		newPushCommand(),
		newCloneCommand(),
		newStatusCommand(),
		newLogCommand(),
	)
	return root
}

func newInitCommand() *cobra.Command {
	var bare bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "create an empty repository",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if _, err := initRepository(".", bare); err != nil {
				log.Fatal(err)
			}
			fmt.Printf("Initialized empty %s repository in %s\n", vcsName, metaDirLabel(bare))
		},
	}
	cmd.Flags().BoolVar(&bare, "bare", false, "create a bare repository")
	return cmd
}

func metaDirLabel(bare bool) string {
	if bare {
		return "."
	}
	return "./" + metaDirName + "/"
}

func newAddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "stage a file or directory",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			repo := mustRepo()
			if err := repo.assertNotBare(); err != nil {
				log.Fatal(err)
			}

			paths, err := repo.matchingFiles(args[0])
			if err != nil {
				log.Fatal(err)
			}
			idx, err := repo.readIndex()
			if err != nil {
				log.Fatal(err)
			}
			for _, p := range paths {
				if err := repo.addPath(idx, p); err != nil {
					log.Fatal(err)
				}
			}
			if err := repo.writeIndex(idx); err != nil {
				log.Fatal(err)
			}
		},
	}
	return cmd
}

func newRmCommand() *cobra.Command {
	var recursive, force bool
	cmd := &cobra.Command{
		Use:   "rm <path>",
		Short: "remove a file or directory from the index and working copy",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			repo := mustRepo()
			if err := repo.assertNotBare(); err != nil {
				log.Fatal(err)
			}
			removed, err := repo.rm(args[0], recursive, force)
			if err != nil {
				log.Fatal(err)
			}
			for _, p := range removed {
				fmt.Printf("rm %s\n", p)
			}
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "allow removing a directory")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the changed-file and on-disk checks")
	return cmd
}

func newCommitCommand() *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "record the staged snapshot",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			repo := mustRepo()
			hash, err := repo.commit(message, nowTimestamp())
			if err != nil {
				log.Fatal(err)
			}
			fmt.Println(hash)
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	return cmd
}

func newBranchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch [<name>]",
		Short: "list branches, or create one at HEAD",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			repo := mustRepo()

			if len(args) == 0 {
				printBranchTable(repo)
				return
			}

			head, err := repo.headCommit()
			if err != nil {
				log.Fatal(err)
			}
			if head.IsZero() {
				log.Fatal("cannot create branch: no commits yet")
			}
			if err := repo.createBranch(args[0], head); err != nil {
				log.Fatal(err)
			}
			fmt.Printf("Created branch %s\n", args[0])
		},
	}
	return cmd
}

func printBranchTable(repo *Repository) {
	heads, err := repo.localHeads()
	if err != nil {
		log.Fatal(err)
	}
	current, _ := repo.headBranchName()

	table := tablewriter.NewWriter(colorOut)
	table.SetHeader([]string{"", "branch"})
	table.SetAutoWrapText(false)
	for _, name := range heads {
		marker := ""
		label := name
		if name == current {
			marker = "*"
			label = color.GreenString(name)
		}
		table.Append([]string{marker, label})
	}
	table.Render()
}

func newCheckoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkout <ref>",
		Short: "switch the working copy to a branch",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			repo := mustRepo()
			if err := repo.checkoutBranch(args[0]); err != nil {
				log.Fatal(err)
			}
			fmt.Printf("Switched to branch %s\n", args[0])
		},
	}
	return cmd
}

func newDiffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff [<ref1> [<ref2>]]",
		Short: "show changed paths between two snapshots",
		Args:  cobra.MaximumNArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			repo := mustRepo()

			var h1, h2 Hash
			var err error
			if len(args) >= 1 {
				h1, err = repo.hash(args[0])
				if err != nil {
					log.Fatal(err)
				}
			}
			if len(args) == 2 {
				h2, err = repo.hash(args[1])
				if err != nil {
					log.Fatal(err)
				}
			}

			d, err := repo.diff(h1, h2)
			if err != nil {
				log.Fatal(err)
			}
			printDiff(d)
		},
	}
	return cmd
}

func printDiff(d Diff) {
	for _, path := range sortedDiffPaths(d) {
		entry := d[path]
		if entry.Status == StatusSame {
			continue
		}
		fmt.Println(colorizeStatus(entry.Status) + " " + path)
	}
}

func sortedDiffPaths(d Diff) []string {
	paths := make([]string, 0, len(d))
	for p := range d {
		paths = append(paths, p)
	}
	sortStrings(paths)
	return paths
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func colorizeStatus(s DiffStatus) string {
	switch s {
	case StatusAdd:
		return color.GreenString("A")
	case StatusModify:
		return color.YellowString("M")
	case StatusDelete:
		return color.RedString("D")
	case StatusConflict:
		return color.New(color.FgRed, color.Bold).Sprint("CONFLICT")
	default:
		return s.String()
	}
}

func newRemoteCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "remote",
		Short: "manage remotes",
	}
	root.AddCommand(&cobra.Command{
		Use:   "add <name> <path>",
		Short: "record a remote repository's location",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			repo := mustRepo()
			if err := repo.AddRemote(args[0], args[1]); err != nil {
				log.Fatal(err)
			}
		},
	})
	return root
}

func newFetchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <remote> <branch>",
		Short: "download a branch's objects from a remote",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			repo := mustRepo()
			hash, err := repo.fetch(args[0], args[1])
			if err != nil {
				log.Fatal(err)
			}
			fmt.Printf("Fetched %s from %s (%s)\n", args[1], args[0], hash.Short())
		},
	}
	return cmd
}

func newMergeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <ref>",
		Short: "merge a branch into the checked-out branch",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			repo := mustRepo()
			giver, err := repo.hash(args[0])
			if err != nil {
				log.Fatal(err)
			}
			result, err := repo.merge(args[0], giver)
			if err != nil {
				log.Fatal(err)
			}
			printMergeResult(args[0], result)
		},
	}
	return cmd
}

func printMergeResult(ref string, result *MergeResult) {
	switch {
	case result.UpToDate:
		fmt.Println("Already up to date.")
	case result.FastForward:
		fmt.Println("Fast-forward")
	case result.Conflicted:
		fmt.Println("Automatic merge failed; fix conflicts and then commit the result.")
		for _, p := range result.Paths {
			fmt.Println(color.YellowString("both modified:") + " " + p)
		}
	default:
		fmt.Printf("Merged %s, staged and ready to commit.\n", ref)
	}
}

func newPullCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull <remote> <branch>",
		Short: "fetch then merge a branch from a remote",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			repo := mustRepo()
			result, err := repo.pull(args[0], args[1])
			if err != nil {
				log.Fatal(err)
			}
			printMergeResult(args[1], result)
		},
	}
	return cmd
}

func newPushCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "push <remote> <branch>",
		Short: "upload a branch's objects and move its ref on a remote",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			repo := mustRepo()
			if err := repo.push(args[0], args[1], force); err != nil {
				log.Fatal(err)
			}
			fmt.Printf("Pushed %s to %s\n", args[1], args[0])
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "allow a non-fast-forward push")
	return cmd
}

func newCloneCommand() *cobra.Command {
	var bare bool
	cmd := &cobra.Command{
		Use:   "clone <src> <dst>",
		Short: "clone a repository into a new directory",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			if _, err := clone(args[0], args[1], bare); err != nil {
				log.Fatal(err)
			}
			fmt.Printf("Cloned into %s\n", args[1])
		},
	}
	cmd.Flags().BoolVar(&bare, "bare", false, "create a bare clone")
	return cmd
}

func newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "show staged, unstaged, and conflicted paths",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			repo := mustRepo()
			report, err := repo.status()
			if err != nil {
				log.Fatal(err)
			}
			printStatusReport(report)
		},
	}
	return cmd
}

func printStatusReport(report *StatusReport) {
	if report.Detached {
		fmt.Println("HEAD detached")
	} else {
		fmt.Printf("On branch %s\n", report.Branch)
	}
	if report.MergeActive {
		fmt.Println(color.New(color.FgRed, color.Bold).Sprint("You have unmerged paths."))
	}

	if len(report.Conflicted) > 0 {
		fmt.Println("\nUnmerged paths:")
		for _, p := range report.Conflicted {
			fmt.Println("\t" + color.RedString("both modified: "+p))
		}
	}

	if len(report.Staged) > 0 {
		fmt.Println("\nChanges to be committed:")
		for _, p := range sortedDiffPaths(statusDiffPaths(report.Staged)) {
			fmt.Println("\t" + color.GreenString(report.Staged[p].String()+": "+p))
		}
	}

	if len(report.Unstaged) > 0 {
		fmt.Println("\nChanges not staged for commit:")
		for _, p := range sortedDiffPaths(statusDiffPaths(report.Unstaged)) {
			fmt.Println("\t" + color.YellowString(report.Unstaged[p].String()+": "+p))
		}
	}
}

// statusDiffPaths adapts a path->status map into the Diff shape
// sortedDiffPaths expects, since status reporting only needs the keys in
// sorted order.
func statusDiffPaths(m map[string]DiffStatus) Diff {
	d := make(Diff, len(m))
	for p, s := range m {
		d[p] = DiffEntry{Status: s}
	}
	return d
}

func newLogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "show commit history reachable from HEAD",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			repo := mustRepo()
			head, err := repo.headCommit()
			if err != nil {
				log.Fatal(err)
			}
			if err := printCommitHistory(repo, head); err != nil {
				log.Fatal(err)
			}
		},
	}
	return cmd
}

// printCommitHistory walks first-parent history from hash, printing each
// commit's short hash, message, and a humanized age parsed best-effort
// from the commit's free-form timestamp string. Parsing failure falls
// back to printing the raw string, since the timestamp's only contractual
// role is participating in the commit's hash.
func printCommitHistory(repo *Repository, hash Hash) error {
	for !hash.IsZero() {
		data, ok, err := repo.readObject(hash)
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		message := commitMessage(data)
		age := commitAge(data)
		fmt.Printf("%s  %s  %s\n", color.YellowString(hash.Short()), age, firstLine(message))

		parents := commitParents(data)
		if len(parents) == 0 {
			break
		}
		hash = parents[0]
	}
	return nil
}

func commitAge(data []byte) string {
	for _, line := range strings.Split(string(data), "\n") {
		if after, ok := strings.CutPrefix(line, "Date:"); ok {
			raw := strings.TrimSpace(after)
			t, err := dateparse.ParseAny(raw)
			if err != nil {
				return raw
			}
			return humanize.Time(t)
		}
	}
	return ""
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
