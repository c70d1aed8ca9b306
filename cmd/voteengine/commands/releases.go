package commands

import (
	"fmt"

	"github.com/apache/trusted-releases/internal/config"
	"github.com/apache/trusted-releases/internal/model"
	"github.com/apache/trusted-releases/internal/query"
	"github.com/apache/trusted-releases/internal/store"
	"github.com/spf13/cobra"
)

var releasesCmd = &cobra.Command{
	Use:   "releases [project]",
	Short: "List a project's releases, newest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runReleases,
}

func init() {
	rootCmd.AddCommand(releasesCmd)
	releasesCmd.Flags().Bool("in-progress", false, "limit to draft/candidate/preview releases")
}

func runReleases(cmd *cobra.Command, args []string) error {
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

	surface := query.New(st)
	ctx := cmd.Context()

	inProgress, _ := cmd.Flags().GetBool("in-progress")

	var releases []*model.Release
	if inProgress {
		releases, err = surface.ReleasesInProgress(ctx, args[0])
	} else {
		releases, err = surface.AllReleases(ctx, args[0])
	}
	if err != nil {
		return err
	}

	for _, r := range releases {
		fmt.Printf("%s\t%s\t%s\n", r.Version, r.Phase, r.Created.Format("2006-01-02"))
	}
	return nil
}
