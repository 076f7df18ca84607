package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/vecschema/v1/migration"
	"github.com/Aleph-Alpha/vecschema/v1/vectordb"
)

// cli holds the state shared by all commands of one invocation.
type cli struct {
	configFile string
	dir        string

	// extra options are appended to the fx application; tests use them to
	// replace backends
	extra []fx.Option
}

func newRootCommand(extra ...fx.Option) *cobra.Command {
	c := &cli{extra: extra}

	root := &cobra.Command{
		Use:   "vecmigrate",
		Short: "Versioned schema migrations for vector stores",
		Long: "vecmigrate applies and rolls back versioned collection migrations, validates " +
			"consumer contracts before each change and keeps the applied history in the store.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&c.configFile, "config", os.Getenv("VECSCHEMA_CONFIG"), "Path to config file")
	root.PersistentFlags().StringVar(&c.dir, "dir", "", "Migration directory (overrides migration.dir)")

	root.AddCommand(
		c.applyCommand(),
		c.rollbackCommand(),
		c.historyCommand(),
		c.pendingCommand(),
		compileFilterCommand(),
	)
	return root
}

func (c *cli) loadConfig() (Config, error) {
	cfg, err := LoadConfig(c.configFile)
	if err != nil {
		return Config{}, err
	}
	if c.dir != "" {
		cfg.Migration.Dir = c.dir
	}
	return cfg, nil
}

func (c *cli) run(cmd *cobra.Command, fn func(context.Context, Config, runtime) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	return withRuntime(cmd.Context(), cfg, c.extra, func(ctx context.Context, rt runtime) error {
		return fn(ctx, cfg, rt)
	})
}

func (c *cli) applyCommand() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply pending migrations in version order",
		Long: "Apply every migration from the migration directory that is not in the history yet, " +
			"in ascending version order. Stops at the first failure.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var to migration.Version
			if target != "" {
				v, err := migration.ParseVersion(target)
				if err != nil {
					return err
				}
				to = v
			}

			return c.run(cmd, func(ctx context.Context, cfg Config, rt runtime) error {
				defs, err := migration.LoadDefinitions(cfg.Migration.Dir)
				if err != nil {
					return err
				}
				pending, err := rt.Manager.Pending(ctx, defs)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				applied := 0
				for _, m := range pending {
					if !to.IsZero() && to.Less(m.Version) {
						break
					}
					res, err := rt.Manager.Apply(ctx, m)
					if err != nil {
						printFailure(out, m, res, err)
						return err
					}
					applied++
					fmt.Fprintf(out, "applied %s %s (%d changes)\n", m.Version, m.Name, len(res.Applied))
				}
				if applied == 0 {
					fmt.Fprintln(out, "nothing to apply")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&target, "to", "", "Apply up to and including this version")
	return cmd
}

func printFailure(out io.Writer, m migration.SchemaMigration, res *migration.Result, err error) {
	if migration.IsRejected(err) {
		fmt.Fprintf(out, "rejected %s %s at the %s gate, nothing was changed\n", m.Version, m.Name, migration.GateOf(err))
		return
	}
	fmt.Fprintf(out, "failed %s %s at the %s gate after:\n", m.Version, m.Name, migration.GateOf(err))
	if res != nil {
		for _, change := range res.Applied {
			fmt.Fprintf(out, "  %s\n", change)
		}
	}
}

func (c *cli) rollbackCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <version>",
		Short: "Roll back an applied migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := migration.ParseVersion(args[0])
			if err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, _ Config, rt runtime) error {
				res, err := rt.Manager.Rollback(ctx, version)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rolled back %s (%d changes reverted)\n", version, len(res.Applied))
				return nil
			})
		},
	}
}

func (c *cli) historyCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, _ Config, rt runtime) error {
				history, err := rt.Manager.History(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), history)
				}
				return writeTable(cmd.OutOrStdout(), history)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full records as JSON")
	return cmd
}

func (c *cli) pendingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List migrations that are not applied yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, cfg Config, rt runtime) error {
				defs, err := migration.LoadDefinitions(cfg.Migration.Dir)
				if err != nil {
					return err
				}
				pending, err := rt.Manager.Pending(ctx, defs)
				if err != nil {
					return err
				}
				return writeTable(cmd.OutOrStdout(), pending)
			})
		},
	}
}

func writeTable(out io.Writer, migrations []migration.SchemaMigration) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tAUTHOR\tCHANGES\tREVERSIBLE\tCREATED")
	for _, m := range migrations {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%t\t%s\n",
			m.Version, m.Name, m.Metadata.Author, len(m.Changes), m.Metadata.Reversible,
			m.Metadata.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func compileFilterCommand() *cobra.Command {
	var skipInvalid bool

	cmd := &cobra.Command{
		Use:   "compile-filter [expression]",
		Short: "Compile a JSON filter expression into a filter set",
		Long: "Compile a JSON filter expression such as '{\"tenant\":\"acme\",\"year\":{\"$gte\":2020}}' " +
			"and print the resulting filter set. Reads the expression from stdin when no argument is given.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []byte
			if len(args) == 1 {
				raw = []byte(args[0])
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				raw = data
			}
			if strings.TrimSpace(string(raw)) == "" {
				return errors.New("empty filter expression")
			}

			var expr vectordb.FilterExpression
			if err := json.Unmarshal(raw, &expr); err != nil {
				return fmt.Errorf("invalid filter expression: %w", err)
			}

			var opts []vectordb.CompileOption
			if skipInvalid {
				opts = append(opts, vectordb.SkipInvalid())
			}
			fs, err := vectordb.Compile(expr, opts...)
			if err != nil {
				return err
			}
			if fs == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "null")
				return nil
			}
			return writeJSON(cmd.OutOrStdout(), fs)
		},
	}
	cmd.Flags().BoolVar(&skipInvalid, "skip-invalid", false, "Drop fields with invalid values instead of failing")
	return cmd
}
