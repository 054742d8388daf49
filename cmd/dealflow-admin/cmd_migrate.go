package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the embedded Postgres migrations",
		Long: `Apply or roll back the embedded Postgres migrations against database.url.

Available subcommands:
  up      - apply every pending migration
  down    - roll back the most recent migration
  version - print the current schema version`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				dsn, err := e.databaseURL()
				if err != nil {
					return err
				}

				if err := e.migrateUp(cmd.Context(), dsn); err != nil {
					return err
				}

				return printVersion(cmd, e, dsn)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				dsn, err := e.databaseURL()
				if err != nil {
					return err
				}

				if err := e.migrateDown(cmd.Context(), dsn); err != nil {
					return err
				}

				return printVersion(cmd, e, dsn)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				dsn, err := e.databaseURL()
				if err != nil {
					return err
				}

				return printVersion(cmd, e, dsn)
			},
		},
	)

	return cmd
}

func (e *env) databaseURL() (string, error) {
	cfg, err := e.config()
	if err != nil {
		return "", err
	}

	if cfg.Database.URL == "" {
		return "", errors.New("database.url is not set")
	}

	return cfg.Database.URL, nil
}

func printVersion(cmd *cobra.Command, e *env, dsn string) error {
	version, dirty, err := e.schemaVersion(cmd.Context(), dsn)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if dirty {
		_, err = fmt.Fprintf(out, "schema version %d (dirty)\n", version)
		return err
	}

	_, err = fmt.Fprintf(out, "schema version %d\n", version)

	return err
}
