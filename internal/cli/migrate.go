package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/GTDGit/pdv_api/internal/database"
)

type migrateOptions struct {
	down   int
	source string
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &migrateOptions{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or revert database migrations",
		Long: `Apply every pending migration, or revert the last N with --down.

The migration source defaults to MIGRATIONS_PATH.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.down < 0 {
				return fmt.Errorf("--down must not be negative")
			}
			return runMigrate(rootOpts, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&opts.down, "down", 0, "revert this many migrations instead of applying")
	cmd.Flags().StringVar(&opts.source, "source", "", "migration source URL (default MIGRATIONS_PATH)")

	return cmd
}

func runMigrate(rootOpts *RootOptions, opts *migrateOptions, w io.Writer) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	source := opts.source
	if source == "" {
		source = e.cfg.MigrationsPath
	}

	action := "up"
	if opts.down > 0 {
		action = "down"
		err = database.MigrateDown(e.db.DB, source, opts.down)
	} else {
		err = database.Migrate(e.db.DB, source)
	}
	if err != nil {
		return err
	}

	return printResult(w, rootOpts, map[string]any{"action": action, "steps": opts.down, "source": source}, func(w io.Writer) {
		if action == "down" {
			fmt.Fprintf(w, "Reverted %d migration(s) from %s\n", opts.down, source)
			return
		}
		fmt.Fprintf(w, "Schema up to date (%s)\n", source)
	})
}
