package commands

import (
	"fmt"
	"time"

	"github.com/apache/trusted-releases/internal/archive"
	"github.com/apache/trusted-releases/internal/config"
	"github.com/apache/trusted-releases/internal/directory"
	"github.com/apache/trusted-releases/internal/outcome"
	"github.com/apache/trusted-releases/internal/store"
	"github.com/apache/trusted-releases/internal/tabulate"
	"github.com/spf13/cobra"
)

var tallyCmd = &cobra.Command{
	Use:   "tally [project] [version] [thread-id]",
	Short: "Dry-run tabulate a vote thread and print the outcome",
	Args:  cobra.ExactArgs(3),
	RunE:  runTally,
}

func init() {
	rootCmd.AddCommand(tallyCmd)
}

func runTally(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	projectName, version, threadID := args[0], args[1], args[2]

	ctx := cmd.Context()
	sess := store.NewSession(st.DB())
	project, err := sess.GetProject(ctx, projectName)
	if err != nil {
		return err
	}
	committee, err := project.RequireCommittee()
	if err != nil {
		return err
	}

	reader := archive.NewHTTPReader(cfg.Archive.BaseURL, cfg.Archive.Timeout, nil)
	dir := directory.NewHTTPClient(cfg.Directory.BaseURL, cfg.Directory.Timeout, nil)

	result, err := tabulate.Votes(ctx, reader, dir, threadID, committee, tabulate.Options{})
	if err != nil {
		return err
	}

	out := outcome.Evaluate(result, project.ReleasePolicy, time.Now())
	fmt.Printf("project=%s version=%s votes=%d\n", projectName, version, len(result.Votes))
	fmt.Println(out.Message)

	return nil
}
