package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"logmerge/internal/config"
	"logmerge/internal/render"
	"logmerge/internal/server"
	"logmerge/pkg/inputtype"
	"logmerge/pkg/logmerge"
)

var (
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "logmerge",
	Short: "logmerge - Merge two logs into one timeline",
	Long: `logmerge parses two log files into timestamped entries and shows them side by side,
ordered by time. Lines without a leading "YYYY-MM-DD HH:MM:SS.mmm" timestamp are
continuations of the entry above.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v, err := config.New(cfgFile)
		if err != nil {
			return err
		}
		if err := config.Bind(v, cmd.Flags()); err != nil {
			return err
		}
		cfg, err = config.Load(v)
		if err != nil {
			return err
		}
		slog.SetDefault(cfg.Logger())
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the upload server",
	Long:  `Start a web server where two log files can be uploaded and viewed as one merged table.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Run(cmd.Context(), server.Options{
			Listen:         cfg.Listen,
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
			MaxUploadBytes: cfg.MaxUploadBytes,
		})
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge LEFT RIGHT",
	Short: "Merge two log files and print the result",
	Long: `Merge two log files and print the result.

Examples:
  logmerge merge app.log db.log
  logmerge merge app.log db.log --format markdown > merged.md
  logmerge merge app.log db.log --format json | jq .`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := render.New(cfg.Format, outputWidth())
		if err != nil {
			return err
		}
		rows, err := mergeFiles(args[0], args[1])
		if err != nil {
			return err
		}
		return r.Render(cmd.OutOrStdout(), args[0], args[1], rows)
	},
}

// mergeFiles parses both files and merges them.
func mergeFiles(leftPath, rightPath string) ([]logmerge.MergedEntry, error) {
	left, err := parseFile(leftPath)
	if err != nil {
		return nil, err
	}
	right, err := parseFile(rightPath)
	if err != nil {
		return nil, err
	}
	return logmerge.Merge(left, right), nil
}

func parseFile(path string) ([]logmerge.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	content, typ, err := inputtype.Check(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	entries, err := logmerge.ParseReader(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slog.Debug("Parsed log", "path", path, "type", typ, "entries", len(entries))
	return entries, nil
}

// outputWidth returns the configured width, else the terminal width, else
// render.DefaultWidth.
func outputWidth() int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			return w
		}
	}
	return render.DefaultWidth
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./.logmerge.yaml or $HOME/.logmerge.yaml)")
	rootCmd.PersistentFlags().String(config.KeyLogLevel, "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String(config.KeyLogFormat, "text", "log format: text, json")

	serveCmd.Flags().StringP(config.KeyListen, "l", "localhost:22124", "Address to listen on")
	serveCmd.Flags().Int64(config.KeyMaxUploadBytes, 64<<20, "Largest accepted upload in bytes (0: limited by available memory only)")
	serveCmd.Flags().Duration(config.KeyReadTimeout, 0, "HTTP read timeout (default 30s)")
	serveCmd.Flags().Duration(config.KeyWriteTimeout, 0, "HTTP write timeout (default 60s)")

	for _, c := range []*cobra.Command{mergeCmd, watchCmd} {
		c.Flags().StringP(config.KeyFormat, "f", "text", "output format: text, json, markdown, html")
		c.Flags().IntP(config.KeyWidth, "w", 0, "text output width (default: terminal width)")
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
