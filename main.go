package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/martinfed/open-bus/config"
	"github.com/martinfed/open-bus/perfmetrics"
	"github.com/martinfed/open-bus/terminal"
	"github.com/martinfed/open-bus/transfer"
)

var themeManager = terminal.NewThemeManager()

func main() {
	// Interrupt during a transfer just aborts; the partial local file is
	// left behind for the caller to inspect or remove.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGINT)
	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal. Aborting...")
		os.Exit(1)
	}()

	if err := newRootCmd().Execute(); err != nil {
		themeManager.GetErrorColor().Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree with the endpoint override flags.
func newRootCmd() *cobra.Command {
	endpoint := config.DefaultEndpoint()
	var themeName string

	cmd := &cobra.Command{
		Use:   "open-bus",
		Short: "Fetch Israel public transportation GTFS data over anonymous FTP",
		Long: "open-bus downloads the Israel Ministry of Transport GTFS archive " +
			"from its public FTP drop using anonymous login, passive mode and " +
			"binary transfer type.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return themeManager.SetTheme(themeName)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&endpoint.Host, "host", endpoint.Host, "FTP server hostname")
	flags.IntVar(&endpoint.Port, "port", endpoint.Port, "FTP control port")
	flags.StringVar(&endpoint.RemoteFile, "file", endpoint.RemoteFile, "remote archive file name")
	flags.DurationVar(&endpoint.Timeout, "timeout", endpoint.Timeout, "control connection dial timeout")
	flags.StringVar(&themeName, "theme", "dark", "terminal theme (light or dark)")

	cmd.AddCommand(newFetchCmd(&endpoint))
	cmd.AddCommand(newListCmd(&endpoint))

	return cmd
}

// newFetchCmd creates the fetch command.
func newFetchCmd(endpoint *config.Endpoint) *cobra.Command {
	var (
		output     string
		quiet      bool
		metricsLog string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the GTFS archive",
		Long: "Download the GTFS archive to the given output path, or to a " +
			"freshly created temporary file when no output is given. The " +
			"downloaded file is never removed by this tool; cleanup is the " +
			"caller's responsibility.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fetcher := transfer.NewFetcher(*endpoint)
			fetcher.ShowProgress = !quiet && term.IsTerminal(int(os.Stdout.Fd()))
			if debug {
				fetcher.DebugOutput = os.Stderr
			}

			if !quiet {
				themeManager.GetInfoColor().Printf("Connecting to %s ...\n", endpoint.Addr())
			}

			start := time.Now()
			path := output
			var err error
			if path == "" {
				path, err = fetcher.Fetch()
			} else {
				err = fetcher.FetchTo(path)
			}
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			info, statErr := os.Stat(path)
			if statErr != nil {
				return fmt.Errorf("downloaded file missing: %v", statErr)
			}

			if !quiet {
				themeManager.GetSuccessColor().Printf("Downloaded %s (%d bytes) to %s\n",
					endpoint.RemoteFile, info.Size(), path)
			} else {
				// Quiet mode still reports the path so scripts can pick it up.
				fmt.Println(path)
			}

			if metricsLog != "" {
				record := perfmetrics.FetchRecord{
					Host:        endpoint.Host,
					FileName:    endpoint.RemoteFile,
					SizeBytes:   info.Size(),
					Elapsed:     elapsed,
					Destination: path,
				}
				if err := perfmetrics.LogFetchToCSV(metricsLog, record); err != nil {
					themeManager.GetErrorColor().Fprintf(os.Stderr, "Failed to log metrics: %v\n", err)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "destination path (default: new temp file)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress and status output")
	cmd.Flags().StringVar(&metricsLog, "metrics", "", "append a transfer record to this CSV file")
	cmd.Flags().BoolVar(&debug, "debug", false, "print the FTP command trace to stderr")

	return cmd
}

// newListCmd creates the list command.
func newListCmd(endpoint *config.Endpoint) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the archives in the server's login directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fetcher := transfer.NewFetcher(*endpoint)
			entries, err := fetcher.List()
			if err != nil {
				return err
			}
			return terminal.NewTableFormatter(os.Stdout).FormatRemoteListing(entries)
		},
	}
}
