package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/heliocanvas/internal/config"
	"github.com/dshills/heliocanvas/internal/keybind"
	"github.com/dshills/heliocanvas/internal/logging"
	"github.com/dshills/heliocanvas/internal/scene"
	"github.com/dshills/heliocanvas/internal/session"
	"github.com/dshills/heliocanvas/internal/store"
)

type globalFlags struct {
	configPath string
	logLevel   string
	dbPath     string
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "heliocanvas",
		Short:         "Scriptable heliostat field layout editor with undo/redo",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to configuration file (.toml, .yaml)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug|info|warn|error (overrides config)")
	root.PersistentFlags().StringVar(&flags.dbPath, "db", "", "Autosave database path (overrides config)")

	runCmd := &cobra.Command{
		Use:     "run <script.lua>",
		Short:   "Run a Lua script against the scene and print the result",
		Example: "  heliocanvas run layout.lua --db field.db",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, &flags, func(ctx context.Context, s *session.Session) error {
				if err := s.RunScriptFile(ctx, args[0]); err != nil {
					return err
				}
				return printScene(cmd.OutOrStdout(), s)
			})
		},
	}

	shellCmd := &cobra.Command{
		Use:   "shell",
		Short: "Read Lua statements from stdin, one per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, &flags, func(ctx context.Context, s *session.Session) error {
				if flags.configPath != "" {
					if err := s.WatchConfig(flags.configPath); err != nil {
						return err
					}
				}
				return shell(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), s)
			})
		},
	}

	keysCmd := &cobra.Command{
		Use:   "keys",
		Short: "Print the effective undo/redo key bindings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(&flags)
			if err != nil {
				return err
			}
			keys, err := keybind.New(cfg.Keys.Undo, cfg.Keys.Redo)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, a := range []keybind.Action{keybind.ActionUndo, keybind.ActionRedo} {
				names := make([]string, 0)
				for _, b := range keys.Bindings(a) {
					names = append(names, b.String())
				}
				fmt.Fprintf(out, "%-5s %s\n", a, strings.Join(names, ", "))
			}
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the objects saved in the autosave database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(&flags)
			if err != nil {
				return err
			}
			if cfg.Store.Path == "" {
				return fmt.Errorf("no database: set --db or store.path")
			}
			st, err := store.Open(cmd.Context(), cfg.Store.Path)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			list, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tKIND\tNAME\tSAVED")
			for _, sum := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", sum.ID, sum.Kind, sum.Name, sum.SavedAt.Format(time.DateTime))
			}
			return tw.Flush()
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "heliocanvas %s (commit %s, built %s)\n", version, commit, date)
		},
	}

	root.AddCommand(runCmd, shellCmd, keysCmd, listCmd, versionCmd)
	return root
}

func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.dbPath != "" {
		cfg.Store.Path = flags.dbPath
	}
	return cfg, cfg.Validate()
}

func withSession(cmd *cobra.Command, flags *globalFlags, fn func(context.Context, *session.Session) error) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := session.Open(ctx, cfg,
		session.WithLogger(logger),
		session.WithScriptOutput(cmd.OutOrStdout()),
	)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("close session")
		}
	}()
	return fn(ctx, s)
}

// shell runs each input line as a Lua chunk. Errors are reported and the
// shell continues.
func shell(ctx context.Context, in io.Reader, out io.Writer, s *session.Session) error {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			break
		}
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "ls":
			if err := printScene(out, s); err != nil {
				return err
			}
			continue
		}
		if err := s.RunScript(ctx, line); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
	fmt.Fprintln(out)
	return sc.Err()
}

func printScene(w io.Writer, s *session.Session) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tNAME\tPOSITION")
	for _, obj := range s.Scene().Objects() {
		pos := "-"
		if p, ok := obj.(scene.Positioned); ok {
			pos = p.Position().String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", obj.ID(), obj.Kind(), obj.Name(), pos)
	}
	h := s.History()
	fmt.Fprintf(tw, "\nundo: %d\tredo: %d\n", h.UndoCount(), h.RedoCount())
	return tw.Flush()
}

