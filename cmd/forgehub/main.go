// Command forgehub loads declared build-system objects, expands templates,
// resolves dependencies into ordered tiers, and compares or applies the
// result against a remote hub.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "forgehub",
		Short:   "forgehub reconciles declared build-system objects against a remote hub",
		Version: version,
	}
	root.AddCommand(newExpandCmd())
	root.AddCommand(newCompareCmd())
	root.AddCommand(newApplyCmd())
	root.AddCommand(newDumpCmd())
	return root
}
