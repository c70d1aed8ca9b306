package commands

import (
	"fmt"

	"github.com/apache/trusted-releases/internal/archive"
	"github.com/apache/trusted-releases/internal/config"
	"github.com/apache/trusted-releases/internal/logging"
	"github.com/apache/trusted-releases/internal/orchestrator"
	"github.com/apache/trusted-releases/internal/role"
	"github.com/apache/trusted-releases/internal/store"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [project] [version] [pass|fail]",
	Short: "Resolve a release's candidate vote",
	Args:  cobra.ExactArgs(3),
	RunE:  runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().String("uid", "", "ASF uid to act as (must be a member of the project's committee; admin rights are not recognised here)")
	resolveCmd.Flags().String("body", "", "resolution email body")
}

func runResolve(cmd *cobra.Command, args []string) error {
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

	projectName, version, result := args[0], args[1], args[2]
	var passed bool
	switch result {
	case "pass":
		passed = true
	case "fail":
		passed = false
	default:
		return fmt.Errorf("result must be \"pass\" or \"fail\", got %q", result)
	}

	uid, _ := cmd.Flags().GetString("uid")
	if uid == "" {
		return fmt.Errorf("--uid is required")
	}
	body, _ := cmd.Flags().GetString("body")

	sess := store.NewSession(st.DB())
	ctx := cmd.Context()
	project, err := sess.GetProject(ctx, projectName)
	if err != nil {
		return err
	}
	committee, err := project.RequireCommittee()
	if err != nil {
		return err
	}

	caller := role.NewGrant(uid, uid, false)
	if committee.Members.Has(uid) {
		caller = caller.WithCommitteeMember(committee.Name)
	}

	reader := archive.NewHTTPReader(cfg.Archive.BaseURL, cfg.Archive.Timeout, nil)
	orch := orchestrator.New(st, reader, logging.NewDefault(), cfg.DevEnvironment)
	note, err := orch.Resolve(ctx, caller, projectName, version, passed, body)
	if err != nil {
		return err
	}
	if note != "" {
		fmt.Println(note)
	}
	fmt.Println("resolved.")
	return nil
}
