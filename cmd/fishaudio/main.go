// main package for the fishaudio command line client
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/book-expert/fishaudio-service/internal/config"
	"github.com/book-expert/fishaudio-service/internal/fishaudio"
	"github.com/book-expert/fishaudio-service/internal/node"
	"github.com/book-expert/logger"
	"github.com/spf13/cobra"
)

const logFileName = "fishaudio-cli.log"

type rootOptions struct {
	cfg config.Config
}

type runOptions struct {
	resource       string
	operation      string
	paramsFile     string
	inputs         []string
	outputDir      string
	continueOnFail bool
}

// resultRecord is the printed form of an OperationResult.
type resultRecord struct {
	JSON            map[string]any `json:"json"`
	SourceItemIndex int            `json:"source_item_index"`
	Error           string         `json:"error,omitempty"`
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "fishaudio",
		Short:         "Run Fish Audio operations from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.cfg.FishAudio.BaseURL, "base-url", config.DefaultBaseURL, "Fish Audio API base URL")
	flags.StringVar(&opts.cfg.FishAudio.APIKeyEnv, "api-key-env", config.DefaultAPIKeyEnv,
		"environment variable holding the API key")
	flags.IntVar(&opts.cfg.FishAudio.TimeoutSeconds, "timeout", config.DefaultTimeoutSeconds,
		"request timeout in seconds")
	flags.StringVar(&opts.cfg.Paths.BaseLogsDir, "log-dir", os.TempDir(), "directory for the log file")

	root.AddCommand(newRunCommand(opts), newCreditsCommand(opts), newVoicesCommand(opts))

	return root
}

// setup validates the flags and builds the logger and dispatcher.
func (o *rootOptions) setup() (*node.Dispatcher, *fishaudio.Client, *logger.Logger, error) {
	err := o.cfg.Normalize()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid flags: %w", err)
	}

	apiKey, err := o.cfg.FishAudio.APIKey()
	if err != nil {
		return nil, nil, nil, err
	}

	log, err := logger.New(o.cfg.Paths.BaseLogsDir, logFileName)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	client := fishaudio.NewClient(o.cfg.FishAudio.BaseURL, apiKey, o.cfg.FishAudio.Timeout())

	return node.NewDispatcher(client, log), client, log, nil
}

func newRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one resource/operation over the items of a parameter file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeRun(cmd, root, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.resource, "resource", "", "resource: speech, voiceModel or account")
	flags.StringVar(&opts.operation, "operation", "", "operation to run on the resource")
	flags.StringVar(&opts.paramsFile, "params", "", "TOML or YAML parameter file")
	flags.StringArrayVar(&opts.inputs, "input", nil, "attach a file to every item as field=path")
	flags.StringVar(&opts.outputDir, "output", ".", "directory for output files")
	flags.BoolVar(&opts.continueOnFail, "continue-on-fail", false, "record item failures and keep going")

	_ = cmd.MarkFlagRequired("resource")
	_ = cmd.MarkFlagRequired("operation")

	return cmd
}

func executeRun(cmd *cobra.Command, root *rootOptions, opts *runOptions) error {
	var paramSets []map[string]any

	if opts.paramsFile != "" {
		loaded, err := loadParamFile(opts.paramsFile)
		if err != nil {
			return err
		}

		paramSets = loaded
	}

	binary, err := parseInputs(opts.inputs)
	if err != nil {
		return err
	}

	dispatcher, _, log, err := root.setup()
	if err != nil {
		return err
	}
	defer log.Close()

	policy := node.StopOnError
	if opts.continueOnFail {
		policy = node.ContinueOnError
	}

	results, execErr := dispatcher.Execute(cmd.Context(), node.Batch{
		Resource:  node.Resource(opts.resource),
		Operation: node.Operation(opts.operation),
		Items:     buildItems(paramSets, binary),
	}, policy)

	written, writeErr := writeOutputs(opts.outputDir, results)
	for _, path := range written {
		log.Info("Wrote %s", path)
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
	}

	printErr := printResults(cmd.OutOrStdout(), results)

	switch {
	case execErr != nil:
		return execErr
	case writeErr != nil:
		return writeErr
	default:
		return printErr
	}
}

func printResults(out io.Writer, results []node.OperationResult) error {
	records := make([]resultRecord, 0, len(results))

	for _, result := range results {
		records = append(records, resultRecord{
			JSON:            result.JSON,
			SourceItemIndex: result.SourceItemIndex,
			Error:           result.Error,
		})
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(records)
	if err != nil {
		return fmt.Errorf("failed to print results: %w", err)
	}

	return nil
}

func newCreditsCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "credits",
		Short: "Verify the API key and show the remaining API credit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dispatcher, client, log, err := root.setup()
			if err != nil {
				return err
			}
			defer log.Close()

			err = client.CheckCredentials(cmd.Context())
			if err != nil {
				log.Error("Credential check failed: %v", err)

				return err
			}

			results, err := dispatcher.Execute(cmd.Context(), node.Batch{
				Resource:  node.RouteAccountGetCredits.Resource,
				Operation: node.RouteAccountGetCredits.Operation,
				Items:     []node.Item{{}},
			}, node.StopOnError)
			if err != nil {
				return err
			}

			return printResults(cmd.OutOrStdout(), results)
		},
	}
}

func newVoicesCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "voices [filter]",
		Short: "Search voice models by title",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dispatcher, _, log, err := root.setup()
			if err != nil {
				return err
			}
			defer log.Close()

			filter := ""
			if len(args) == 1 {
				filter = args[0]
			}

			options, err := dispatcher.SearchVoices(cmd.Context(), filter)
			if err != nil {
				return err
			}

			table := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, option := range options {
				fmt.Fprintf(table, "%s\t%s\t%s\n", option.Value, option.Name, option.URL)
			}

			return table.Flush()
		},
	}
}

func main() {
	err := newRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fishaudio: %v\n", err)
		os.Exit(1)
	}
}
