// Command chanfilter composes channel filters, checks them and runs them
// against a records file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/clarktrimble/sabot"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"chanfilter"
	"chanfilter/catalog"
	nt "chanfilter/entity"
	"chanfilter/guard"
	"chanfilter/store/duck"
	"chanfilter/util"
)

var version = "dev"

const (
	cfgMode = 0644
	logMode = 0644
)

func main() {

	rootCmd := &cobra.Command{
		Use:           "chanfilter",
		Short:         "Compose, check and run channel filters",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "chanfilter.yaml", "config file")
	rootCmd.PersistentFlags().String("records", "", "newline delimited records file (overrides config)")
	rootCmd.PersistentFlags().Int("limit-warning", chanfilter.Defaults().RecordLimitWarning, "ask before applying filters matching more records, -1 to never ask")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	rootCmd.AddCommand(
		newValidateCmd(),
		newCompileCmd(),
		newDecompileCmd(),
		newQueryCmd(),
		newCountCmd(),
		newRecordsCmd(),
		newEditCmd(),
		newSampleConfigCmd(),
		versionCmd,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app is what the subcommands share.
type app struct {
	cfg     *chanfilter.Config
	logger  nt.Logger
	store   *duck.Duck
	counter guard.Estimator // store counts, shared while in flight
	catalog *catalog.Static
}

// setup loads config and, when records are configured or required, the
// records store, logging to stderr.
func setup(cmd *cobra.Command, needRecords bool) (ap *app, err error) {

	cfg, err := loadConfig(cmd)
	if err != nil {
		return
	}

	return open(cmd.Context(), cfg, needRecords, &sabot.Sabot{Writer: os.Stderr})
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(cmd *cobra.Command) (cfg *chanfilter.Config, err error) {

	cfg = chanfilter.Defaults()

	path, _ := cmd.Flags().GetString("config")
	_, err = util.LoadYaml(cfg, path)
	if err != nil {
		return
	}

	if cmd.Flags().Changed("records") {
		cfg.Records, _ = cmd.Flags().GetString("records")
	}
	if cmd.Flags().Changed("limit-warning") {
		cfg.RecordLimitWarning, _ = cmd.Flags().GetInt("limit-warning")
	}
	return
}

func open(ctx context.Context, cfg *chanfilter.Config, needRecords bool, lgr nt.Logger) (ap *app, err error) {

	ap = &app{cfg: cfg, logger: lgr}

	if cfg.Records == "" {
		if needRecords {
			err = errors.New("no records file, use --records or set records in config")
			return
		}
		ap.catalog = cfg.Catalog()
		return
	}

	ap.store, err = duck.New(lgr)
	if err != nil {
		return
	}
	ap.counter = &guard.Shared{Estimator: ap.store}

	err = ap.store.Load(ctx, cfg.Records)
	if err != nil {
		return
	}

	channels, err := ap.store.Channels(ctx)
	if err != nil {
		return
	}

	ap.catalog = cfg.Catalog(channels...)
	return
}

func (ap *app) close() {
	if ap.store != nil {
		ap.store.Close()
	}
}

// session starts a session counting against the store, if there is one.
func (ap *app) session() (*chanfilter.Session, error) {
	if ap.counter == nil {
		return ap.cfg.New(ap.catalog, nil, ap.logger)
	}
	return ap.cfg.New(ap.catalog, ap.counter, ap.logger)
}

func newSampleConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sample-config",
		Short: "Write a sample config file unless one exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")

			written, err := util.SampleYaml(sampleConfig(), path, cfgMode)
			if err != nil {
				return err
			}
			if !written {
				fmt.Printf("%s exists, leaving it be\n", path)
				return nil
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
}

func sampleConfig() *chanfilter.Config {
	return &chanfilter.Config{
		RecordLimitWarning: 1000,
		Channels: []nt.ChannelInfo{
			{SystemName: "CHANNEL_ABCDE", Label: "Channel ABCDE", DataType: nt.Scalar},
			{SystemName: "CHANNEL_NOTES", DataType: nt.Text},
		},
		Filters: []string{"Shot Number is not null"},
		Records: "records.ndjson",
		LogFile: "chanfilter.log",
	}
}
