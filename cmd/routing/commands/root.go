package commands

import (
	"github.com/spf13/cobra"
)

var (
	_config = NewDefaultCLIConfig()
)

// RootCmd is the root command for the routing node
var RootCmd = &cobra.Command{
	Use:              "routing",
	Short:            "overlay routing node",
	TraverseChildren: true,
}
