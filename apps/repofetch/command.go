package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	githubadapter "github.com/tilsley/repofetch/apps/repofetch/internal/adapters/github"
	"github.com/tilsley/repofetch/apps/repofetch/internal/fetcher"
	"github.com/tilsley/repofetch/apps/repofetch/internal/gitrepo"
	platformgithub "github.com/tilsley/repofetch/apps/repofetch/internal/platform/github"
)

// Process exit codes.
const (
	exitOK          = 0
	exitFailure     = 1 // bad arguments, or the fetch itself failed
	exitNoLocalPath = 2
	exitCollision   = 3
)

// exitError carries a process exit code out of RunE. The message, if any,
// has already been printed.
type exitError struct {
	code int
}

// Error implements the error interface.
func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

type options struct {
	recursive bool
	branch    string
	apiURL    string
	maxDepth  int
}

func newRootCommand(stderr io.Writer, log *slog.Logger) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "repofetch [options] repo_owner repo path local_path",
		Short: "Fetch part of a GitHub repository without cloning it",
		Long: `Fetch a file or directory of a GitHub repository into an existing local
directory. Use git when you need the whole repository; this is for the
times only a piece of it is required.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 4 {
				fmt.Fprintln(stderr, "Missing required repo_owner, repo, path and local_path.")
				_ = cmd.Usage() //nolint:errcheck // best effort
				return &exitError{code: exitFailure}
			}
			return run(cmd.Context(), stderr, log, opts, args[0], args[1], args[2], args[3])
		},
	}
	cmd.SetErr(stderr)
	cmd.SetOut(stderr)

	flags := cmd.Flags()
	flags.BoolVarP(&opts.recursive, "recursive", "r", false,
		"If path is a directory, fetch everything recursively from the directory.")
	flags.StringVarP(&opts.branch, "branch", "b", fetcher.DefaultBranch,
		"Fetch from the HEAD of the specified branch.")
	flags.StringVar(&opts.apiURL, "api-url", envOr("GITHUB_API_URL", platformgithub.DefaultAPIURL),
		"GitHub API root (env GITHUB_API_URL).")
	flags.IntVar(&opts.maxDepth, "max-depth", 0,
		"Refuse to recurse deeper than this below path. 0 means unlimited.")

	return cmd
}

func run(ctx context.Context, stderr io.Writer, log *slog.Logger, opts *options, owner, repo, remotePath, localPath string) error {
	if _, err := os.Stat(localPath); err != nil {
		fmt.Fprintf(stderr, "Local path '%s' doesn't exist\n", localPath)
		return &exitError{code: exitNoLocalPath}
	}

	// Checked against the full remote path, before anything touches the network.
	target := localPath + "/" + remotePath
	if _, err := os.Stat(target); err == nil {
		fmt.Fprintf(stderr, "Local file '%s' already exists. Aborting.\n", target)
		return &exitError{code: exitCollision}
	}

	gh, err := platformgithub.NewClient(opts.apiURL, nil)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid API URL %q: %v\n", opts.apiURL, err)
		return &exitError{code: exitFailure}
	}

	f := fetcher.New(githubadapter.New(gh), owner, repo, fetcher.Config{
		Recursive: opts.recursive,
		Branch:    opts.branch,
		MaxDepth:  opts.maxDepth,
	}, log)

	err = f.LoadTree(ctx)
	if err == nil {
		err = f.Materialize(ctx, remotePath, localPath)
	}
	if err != nil {
		if gitrepo.IsIOClass(err) {
			fmt.Fprintf(stderr, "Failed: %s\n", err)
		} else {
			log.Error("fetch failed", "repo", owner+"/"+repo, "branch", opts.branch, "path", remotePath, "error", err)
		}
		return &exitError{code: exitFailure}
	}

	stats := f.Stats()
	log.Info("fetch complete",
		"repo", owner+"/"+repo,
		"branch", opts.branch,
		"path", remotePath,
		"files", stats.Files,
		"dirs", stats.Dirs,
		"listings", stats.Listings,
		"bytes", stats.Bytes,
	)
	return nil
}

// execute runs cmd with args and maps the outcome to a process exit code.
func execute(ctx context.Context, cmd *cobra.Command, args []string) int {
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}

	// Flag parsing errors.
	fmt.Fprintln(cmd.ErrOrStderr(), err)
	return exitFailure
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
