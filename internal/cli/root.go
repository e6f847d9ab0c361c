// Package cli implements the openats CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rcliao/openats/internal/config"
	"github.com/rcliao/openats/internal/kv"
	"github.com/rcliao/openats/internal/logging"
	"github.com/rcliao/openats/internal/store"
)

// app carries the state shared by every command of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	log     zerolog.Logger
	reg     *prometheus.Registry
	metrics *store.Metrics
}

// NewRootCmd builds the openats command tree.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "openats",
		Short: "Local stores for the OpenATS dashboard",
		Long: "Manage the archive, message templates and candidates that the OpenATS dashboard keeps " +
			"in local storage. SQLite-backed by default, single binary.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	f := root.PersistentFlags()
	f.StringVar(&a.cfgFile, "config", "", "Config file (default: ./.openats.yaml or ~/.openats.yaml)")
	f.StringP("storage", "s", "", "Storage driver: sqlite, file or memory ($OPENATS_STORAGE_DRIVER)")
	f.StringP("path", "d", "", "Database file or data directory (default: ~/.openats/openats.db)")
	f.String("log-level", "", "Log level: debug, info, warn, error ($OPENATS_LOG_LEVEL)")
	_ = a.v.BindPFlag("storage.driver", f.Lookup("storage"))
	_ = a.v.BindPFlag("storage.path", f.Lookup("path"))
	_ = a.v.BindPFlag("log.level", f.Lookup("log-level"))

	root.AddCommand(
		newArchiveCmd(a),
		newTemplateCmd(a),
		newCandidateCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newStatsCmd(a),
		newKeysCmd(a),
		newWatchCmd(a),
	)
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		exitErr("openats", err)
	}
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	logging.SetLevel(cfg.Log.Level)
	a.log = logging.New(cmd.ErrOrStderr(), cfg.Log.Pretty)
	a.reg = prometheus.NewRegistry()
	a.metrics = store.NewMetrics(a.reg)
	return nil
}

func (a *app) openStorage() (kv.Storage, error) {
	storage, err := kv.Open(a.cfg.Storage.Driver, a.cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a.log.Debug().Str("driver", a.cfg.Storage.Driver).Str("path", a.cfg.Storage.Path).Msg("storage opened")
	return storage, nil
}

// withStores opens the stores, runs fn and closes them again. Counters are
// flushed to the metrics file afterwards, whatever fn returned.
func (a *app) withStores(fn func(s *store.Stores) error) error {
	storage, err := a.openStorage()
	if err != nil {
		return err
	}
	s, err := store.Open(storage, store.Config{Logger: a.log, Metrics: a.metrics})
	if err != nil {
		storage.Close()
		return err
	}
	runErr := fn(s)
	if err := s.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close storage")
	}
	if err := a.writeMetrics(); err != nil {
		a.log.Warn().Err(err).Msg("write metrics")
	}
	return runErr
}

func (a *app) writeMetrics() error {
	if a.cfg.Metrics.File == "" {
		return nil
	}
	return prometheus.WriteToTextfile(a.cfg.Metrics.File, a.reg)
}

func printJSON(w io.Writer, v any, indent bool) error {
	var b []byte
	var err error
	if indent {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
