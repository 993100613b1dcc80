package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var (
	GitCommit string
	GitTag    string
	BuildTime string
)

// @title Book Catalog API
// @version 1.0
// @description Minimal book catalog service to list, search, add and delete books.
// @BasePath /
func main() {
	if err := NewRootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}

// NewRootCommand builds the command line interface. Running the
// binary without a sub-command starts the api server.
func NewRootCommand() *cobra.Command {
	serve := newServeCommand()
	root := &cobra.Command{
		Use:           "bookcat",
		Short:         "Book catalog api server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())
	root.AddCommand(serve, newVersionCommand())
	return root
}

func newServeCommand() *cobra.Command {
	var configFile, envFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the api server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(configFile, envFile)
			if err != nil {
				return fmt.Errorf("application failed to initialized: %w", err)
			}
			if err = app.Run(); err != nil {
				return fmt.Errorf("application exited. check logs for more details: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "./config.yml", "path to the yaml configuration file")
	cmd.Flags().StringVarP(&envFile, "env", "e", "./config.env", "path to the optional environment file")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build details",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tag: %s\ncommit: %s\nbuilt: %s\n", GitTag, GitCommit, BuildTime)
		},
	}
}
