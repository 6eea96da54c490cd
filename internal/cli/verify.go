package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veilcc/veil/internal/ir"
)

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <input.vir>",
		Short: "Check a module against all IR invariants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mod, err := loadModule(args[0])
			if err != nil {
				return err
			}
			if err := ir.Verify(mod); err != nil {
				return WrapExitError(ExitFailure, "module is invalid", err)
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"module":      mod.Name,
					"fingerprint": ir.Fingerprint(mod),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ module %s is valid\n", mod.Name)
			return nil
		},
	}
	return cmd
}
