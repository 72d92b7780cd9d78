package main

import (
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cyraxred/grinder/internal/core"
	"github.com/cyraxred/grinder/internal/mine"
	"github.com/cyraxred/grinder/internal/resolve"
	"github.com/cyraxred/grinder/internal/storage"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "grinder [flags] <repository path>",
	Short: "Mine a Git repository for bug-inducing commits.",
	Long: `Grinder ingests a Git repository's history into an embedded SQLite database
and reports, per bug referenced from commit messages, the earlier commits
which introduced the lines the fix commits later modified.`,
	Version:       "0.1.0",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		database, _ := flags.GetString("database")
		fromDate, _ := flags.GetString("from")
		toDate, _ := flags.GetString("to")
		build, _ := flags.GetBool("build")
		extensions, _ := flags.GetString("extensions")
		verbose, _ := flags.GetBool("verbose")
		quiet, _ := flags.GetBool("quiet")

		if verbose && quiet {
			return errors.New("--verbose and --quiet are mutually exclusive")
		}
		verbosity := core.Normal
		if verbose {
			verbosity = core.Verbose
		} else if quiet {
			verbosity = core.Quiet
		}
		logger := core.NewLogger(verbosity)

		path := args[0]
		if _, err := os.Stat(path); err != nil {
			return errors.Wrapf(err, "invalid path argument %s", path)
		}
		var from, to *int64
		if fromDate != "" {
			stamp, err := resolve.ParseDate(fromDate)
			if err != nil {
				return err
			}
			from = &stamp
		}
		if toDate != "" {
			stamp, err := resolve.ParseDate(toDate)
			if err != nil {
				return err
			}
			to = &stamp
		}

		repository, err := git.PlainOpen(strings.TrimSuffix(path, string(os.PathSeparator)))
		if err != nil {
			return errors.Wrapf(err, "opening repository %s", path)
		}
		database, err = homedir.Expand(database)
		if err != nil {
			return errors.Wrap(err, "expanding database path")
		}
		store, err := storage.Open(database)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := store.Close(); closeErr != nil {
				logger.Error(closeErr)
			}
		}()

		if build {
			miner := mine.NewMiner(repository, store, logger)
			miner.Extensions = splitExtensions(extensions)
			miner.ShowProgress = !quiet
			if err = miner.Run(); err != nil {
				return err
			}
		}

		resolver := resolve.NewResolver(store, logger)
		resolver.From = from
		resolver.To = to
		return resolver.Report(os.Stdout)
	},
}

// splitExtensions parses the --extensions value into the miner's allow-list.
func splitExtensions(value string) []string {
	var extensions []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, ".") {
			part = "." + part
		}
		extensions = append(extensions, part)
	}
	if len(extensions) == 0 {
		return mine.DefaultExtensions
	}
	return extensions
}

func init() {
	rootFlags := rootCmd.Flags()
	rootFlags.StringP("database", "d", "db.sqlite",
		"Path to the SQLite database file. Created if absent.")
	rootFlags.String("from", "",
		"Only consider fix commits from this date, DD/MM/YYYY.")
	rootFlags.String("to", "",
		"Only consider fix commits up to this date, DD/MM/YYYY.")
	rootFlags.BoolP("build", "b", false,
		"Build the database from the repository content before resolving.")
	rootFlags.StringP("extensions", "x", strings.Join(mine.DefaultExtensions, ","),
		"Comma-separated list of old-path file extensions to process.")
	rootFlags.BoolP("verbose", "v", false, "Be more verbose.")
	rootFlags.BoolP("quiet", "q", false, "Print less text and no progress.")
}
