package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/veilcc/veil/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded obfuscation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "history database path (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open history database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing history database", "error", closeErr)
		}
	}()

	runs, err := st.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if opts.Format == "json" {
		type jsonRun struct {
			ID                string `json:"id"`
			CreatedAt         string `json:"created_at"`
			Module            string `json:"module"`
			FingerprintBefore string `json:"fingerprint_before"`
			FingerprintAfter  string `json:"fingerprint_after"`
			BogusBlocks       int    `json:"bogus_blocks"`
			NopsInserted      int    `json:"nops_inserted"`
			LoopsWrapped      int    `json:"loops_wrapped"`
			StringsEncrypted  int    `json:"strings_encrypted"`
		}
		out := make([]jsonRun, len(runs))
		for i, r := range runs {
			out[i] = jsonRun{
				ID:                r.ID,
				CreatedAt:         r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
				Module:            r.Module,
				FingerprintBefore: r.FingerprintBefore,
				FingerprintAfter:  r.FingerprintAfter,
				BogusBlocks:       r.BogusBlocks,
				NopsInserted:      r.NopsInserted,
				LoopsWrapped:      r.LoopsWrapped,
				StringsEncrypted:  r.StringsEncrypted,
			}
		}
		return writeJSON(cmd.OutOrStdout(), out)
	}

	p := message.NewPrinter(language.English)
	if len(runs) == 0 {
		p.Fprintln(cmd.OutOrStdout(), "no runs recorded")
		return nil
	}
	for _, r := range runs {
		p.Fprintf(cmd.OutOrStdout(), "%s  %s  module=%s  bogus=%d nops=%d loops=%d strings=%d\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.ID,
			r.Module,
			r.BogusBlocks,
			r.NopsInserted,
			r.LoopsWrapped,
			r.StringsEncrypted,
		)
	}
	return nil
}
