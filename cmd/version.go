package cmd

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/huangsam/commitmap/internal/contract"
)

// versionCmd shows the verbose version for diagnostic purposes.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of commitmap.",
	Long: `Display version information including build details and the default
SQLite store location. Include this output when reporting bugs.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("commitmap CLI\n")
		cmd.Printf("  Version:  %s\n", version)
		cmd.Printf("  Commit:   %s\n", commit)
		cmd.Printf("  Built:    %s\n", date)
		cmd.Printf("  Runtime:  %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		cmd.Printf("  Store DB: %s\n", contract.GetDBFilePath())
	},
}
