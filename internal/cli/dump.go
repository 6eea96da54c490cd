package cli

import (
	"github.com/spf13/cobra"

	"github.com/veilcc/veil/internal/ir"
)

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <input.vir>",
		Short: "Re-emit a module in canonical textual form",
		Long: `Parse a module and print its canonical dump. Value names are
re-numbered in order of appearance, so the output is stable under
repeated dumping and suitable for diffing and fingerprinting.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mod, err := loadModule(args[0])
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(ir.Dump(mod))
			return err
		},
	}
	return cmd
}
