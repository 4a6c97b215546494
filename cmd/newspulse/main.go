// NewsPulse: multi-source news aggregation with AI timelines
//
// Usage:
//
//	newspulse serve              # run the REST API and the digest scheduler
//	newspulse aggregate <topic>  # merge all sources for a topic
//	newspulse headlines [query]  # cached top headlines or a search
//	newspulse timeline <topic>   # AI timeline, optionally as a PNG
//	newspulse ask <question>     # chat-style answer from headlines
//	newspulse digest run         # generate weekly digests now
//	newspulse version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

// globalOpts are the persistent flags shared by every command.
type globalOpts struct {
	configPath string
	logLevel   string
	jsonOut    bool
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &globalOpts{}

	root := &cobra.Command{
		Use:           "newspulse",
		Short:         "Multi-source news aggregation with AI timelines",
		Long:          "NewsPulse gathers news from GNews, Google News, Reddit, Hacker News and Wikipedia, removes duplicates and turns them into timelines, answers and weekly digests.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default newspulse.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "print results as JSON")

	root.AddCommand(serveCmd(opts))
	root.AddCommand(aggregateCmd(opts))
	root.AddCommand(headlinesCmd(opts))
	root.AddCommand(timelineCmd(opts))
	root.AddCommand(askCmd(opts))
	root.AddCommand(digestCmd(opts))
	root.AddCommand(versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "newspulse %s\n", version)
		},
	}
}
