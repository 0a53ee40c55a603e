package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Storbiic/ETL-Dashboard/internal/config"
)

func newValidateCmd() *cobra.Command {
	var cfgPath, envFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a run config and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := config.Decode(cfgPath)
			if err != nil {
				return err
			}
			if r, err = config.LoadEnv(r, envFile); err != nil {
				return err
			}
			if err := reportIssues(cmd.ErrOrStderr(), config.ValidateRun(r.Normalize())); err != nil {
				return fmt.Errorf("%s: %w", cfgPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration is valid: %s\n", cfgPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "run config JSON path")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file overlaid on the config; ignored when missing")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
