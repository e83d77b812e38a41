// Package commands implements the l1feed command line.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
)

// CLI is the l1feed command tree.
type CLI struct {
	rootCmd *cobra.Command
	out     io.Writer
}

// New creates the command tree. Command output goes to out.
func New(out io.Writer) *CLI {
	rootCmd := &cobra.Command{
		Use:           "l1feed",
		Short:         "Optimism L1 security fee estimates for wallets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	c := &CLI{rootCmd: rootCmd, out: out}
	rootCmd.AddCommand(c.newServeCmd())
	rootCmd.AddCommand(c.newQuoteCmd())
	rootCmd.AddCommand(c.newVersionCmd())
	return c
}

// Execute runs the command selected by the arguments.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs overrides os.Args[1:].
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}
