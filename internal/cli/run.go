package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veilcc/veil/internal/interp"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	MaxSteps int
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <input.vir>",
		Short: "Execute a module with the reference interpreter",
		Long: `Execute a module: initializers by ascending priority, then main.
The program's output is written to stdout and the exit value is
reported on stderr.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mod, err := loadModule(args[0])
			if err != nil {
				return err
			}
			result, err := interp.Run(mod, interp.WithMaxSteps(opts.MaxSteps))
			if err != nil {
				return WrapExitError(ExitFailure, "execution failed", err)
			}
			if _, err := cmd.OutOrStdout().Write(result.Output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exit: %d\n", result.Exit)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", interp.DefaultMaxSteps, "instruction quota for the run")
	return cmd
}
