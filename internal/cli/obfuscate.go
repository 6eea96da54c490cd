package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/veilcc/veil/internal/config"
	"github.com/veilcc/veil/internal/engine"
	"github.com/veilcc/veil/internal/ir"
	"github.com/veilcc/veil/internal/profile"
	"github.com/veilcc/veil/internal/store"
)

// ObfuscateOptions holds flags for the obfuscate command.
type ObfuscateOptions struct {
	*RootOptions
	Output   string
	Profile  string
	Database string
}

// NewObfuscateCommand creates the obfuscate command.
func NewObfuscateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ObfuscateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "obfuscate <input.vir>",
		Short: "Apply the obfuscation pipeline to a module",
		Long: `Apply the obfuscation pipeline to a textual IR module.

Configuration comes from --profile when given; otherwise from the
configuration globals embedded in the module (obf_bogus_blocks,
obf_string_level, obf_insert_nops, obf_flatten), with defaults for
absent entries.

Example:
  veil obfuscate prog.vir -o prog.obf.vir
  veil obfuscate prog.vir -o prog.obf.vir --profile heavy.yaml --db history.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runObfuscate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "path for the obfuscated module (required)")
	cmd.Flags().StringVar(&opts.Profile, "profile", "", "YAML obfuscation profile")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this history database")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runObfuscate(opts *ObfuscateOptions, input string, cmd *cobra.Command) error {
	mod, err := loadModule(input)
	if err != nil {
		return err
	}

	var cfg config.Config
	if opts.Profile != "" {
		cfg, err = profile.Load(opts.Profile)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load profile", err)
		}
		slog.Debug("configuration from profile", "path", opts.Profile)
	} else {
		cfg, err = config.FromModule(mod)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid embedded configuration", err)
		}
	}

	before := ir.Fingerprint(mod)
	stats, err := engine.Run(mod, cfg)
	if err != nil {
		return WrapExitError(ExitFailure, "obfuscation failed", err)
	}
	after := ir.Fingerprint(mod)

	if err := os.WriteFile(opts.Output, ir.Dump(mod), 0o644); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}

	if opts.Database != "" {
		if err := recordRun(cmd, opts.Database, mod.Name, before, after, stats); err != nil {
			return err
		}
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), map[string]any{
			"output":             opts.Output,
			"fingerprint_before": before,
			"fingerprint_after":  after,
			"functions":          stats.FunctionsVisited,
			"bogus_blocks":       stats.BogusBlocks,
			"nops_inserted":      stats.NopsInserted,
			"loops_wrapped":      stats.LoopsWrapped,
			"strings_encrypted":  stats.StringsEncrypted,
		})
	}

	p := message.NewPrinter(language.English)
	p.Fprintf(cmd.OutOrStdout(), "obfuscated %s -> %s\n", input, opts.Output)
	p.Fprintf(cmd.OutOrStdout(), "  functions visited: %d\n", stats.FunctionsVisited)
	p.Fprintf(cmd.OutOrStdout(), "  bogus blocks:      %d\n", stats.BogusBlocks)
	p.Fprintf(cmd.OutOrStdout(), "  nops inserted:     %d\n", stats.NopsInserted)
	p.Fprintf(cmd.OutOrStdout(), "  loops wrapped:     %d\n", stats.LoopsWrapped)
	p.Fprintf(cmd.OutOrStdout(), "  strings encrypted: %d\n", stats.StringsEncrypted)
	return nil
}

func recordRun(cmd *cobra.Command, dbPath, module, before, after string, stats engine.Stats) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open history database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing history database", "error", closeErr)
		}
	}()

	run := store.Run{
		ID:                store.NewRunID(),
		CreatedAt:         time.Now(),
		Module:            module,
		FingerprintBefore: before,
		FingerprintAfter:  after,
		BogusBlocks:       stats.BogusBlocks,
		NopsInserted:      stats.NopsInserted,
		LoopsWrapped:      stats.LoopsWrapped,
		StringsEncrypted:  stats.StringsEncrypted,
	}
	if err := st.WriteRun(cmd.Context(), run); err != nil {
		return WrapExitError(ExitCommandError, "failed to record run", err)
	}
	slog.Info("run recorded", "id", run.ID, "db", dbPath)
	return nil
}

// loadModule parses a textual IR module from disk.
func loadModule(path string) (*ir.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read input", err)
	}
	mod, err := ir.Parse(data)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("failed to parse %s", path), err)
	}
	return mod, nil
}
