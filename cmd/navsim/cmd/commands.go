package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cosmossdk.io/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	simtypes "github.com/cosmos/cosmos-sdk/types/simulation"

	"github.com/provlabs/navvault/simapp"
	"github.com/provlabs/navvault/simulation"
)

const (
	FlagLogLevel        = "log-level"
	FlagLogJSON         = "log-json"
	FlagExport          = "export"
	FlagSeed            = "seed"
	FlagBlocks          = "blocks"
	FlagAccounts        = "accounts"
	FlagOpsPerBlock     = "ops-per-block"
	FlagBlockTime       = "block-time"
	FlagInvariantPeriod = "invariant-period"
	FlagWeights         = "weights"
)

// EnvPrefix prefixes the environment variables that can stand in for flags,
// e.g. NAVSIM_SEED or NAVSIM_OPS_PER_BLOCK.
const EnvPrefix = "NAVSIM"

// NewRootCmd creates the navsim root command.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:           "navsim",
		Short:         "Run vault scenarios and randomized simulations against an in-memory app",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return v.BindPFlags(cmd.Flags())
		},
	}
	rootCmd.PersistentFlags().String(FlagLogLevel, "info", "log level, e.g. debug or navvault:debug,*:error")
	rootCmd.PersistentFlags().Bool(FlagLogJSON, false, "log as JSON")
	rootCmd.PersistentFlags().Bool(FlagExport, false, "print the final app genesis")

	rootCmd.AddCommand(
		scenarioCommand(v),
		simulateCommand(v),
		genesisCommand(),
	)
	return rootCmd
}

func newLogger(v *viper.Viper, w io.Writer) (log.Logger, error) {
	filter, err := log.ParseLogLevel(v.GetString(FlagLogLevel))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", FlagLogLevel, err)
	}
	opts := []log.Option{log.FilterOption(filter), log.ColorOption(false)}
	if v.GetBool(FlagLogJSON) {
		opts = append(opts, log.OutputJSONOption())
	}
	return log.NewLogger(w, opts...), nil
}

func printJSON(w io.Writer, value any) error {
	bz, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(bz))
	return err
}

func printExport(v *viper.Viper, w io.Writer, app *simapp.SimApp) error {
	if !v.GetBool(FlagExport) || app == nil {
		return nil
	}
	gen, err := app.ExportGenesis()
	if err != nil {
		return fmt.Errorf("failed to export genesis: %w", err)
	}
	bz, err := simapp.MarshalGenesis(gen)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(bz))
	return err
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	File  string `json:"file"`
	Name  string `json:"name"`
	Steps int    `json:"steps"`
	Pass  bool   `json:"pass"`
	Error string `json:"error,omitempty"`
}

func scenarioCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario <file> [file...]",
		Short: "Play YAML scenario files and check their expectations",
		Example: `navsim scenario simulation/testdata/*.yaml
NAVSIM_LOG_LEVEL=debug navsim scenario split_redemption.yaml --export`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			results := make([]ScenarioResult, 0, len(args))
			failed := 0
			for _, file := range args {
				res := ScenarioResult{File: file}
				sc, err := simulation.LoadScenario(file)
				if err == nil {
					res.Name, res.Steps = sc.Name, len(sc.Steps)
					var app *simapp.SimApp
					app, err = simulation.RunScenario(logger, sc)
					if exportErr := printExport(v, cmd.OutOrStdout(), app); exportErr != nil && err == nil {
						err = exportErr
					}
				}
				if err != nil {
					res.Error = err.Error()
					failed++
				}
				res.Pass = err == nil
				results = append(results, res)
			}

			if err := printJSON(cmd.OutOrStdout(), results); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scenarios failed", failed, len(args))
			}
			return nil
		},
	}
	return cmd
}

func simulateCommand(v *viper.Viper) *cobra.Command {
	def := simulation.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run random vault operations and check invariants as blocks go by",
		Example: `navsim simulate --seed 42 --blocks 500
NAVSIM_SEED=7 navsim simulate --weights weights.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cfg, err := configFromViper(v)
			if err != nil {
				return err
			}

			app, report, simErr := simulation.Simulate(logger, cfg)
			if err := printJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if simErr != nil {
				return simErr
			}
			return printExport(v, cmd.OutOrStdout(), app)
		},
	}
	cmd.Flags().Int64(FlagSeed, def.Seed, "random seed")
	cmd.Flags().Int(FlagBlocks, def.NumBlocks, "number of blocks")
	cmd.Flags().Int(FlagAccounts, def.NumAccounts, "number of holder accounts")
	cmd.Flags().Int(FlagOpsPerBlock, def.OpsPerBlock, "operations per block")
	cmd.Flags().Duration(FlagBlockTime, def.BlockTime, "time between blocks")
	cmd.Flags().Int(FlagInvariantPeriod, def.InvariantCheckPeriod, "check invariants every N blocks, 0 to disable")
	cmd.Flags().String(FlagWeights, "", "JSON file of operation weights, e.g. {\"op_weight_fulfill\": 10}")
	return cmd
}

func configFromViper(v *viper.Viper) (simulation.Config, error) {
	cfg := simulation.Config{
		Seed:                 v.GetInt64(FlagSeed),
		NumBlocks:            v.GetInt(FlagBlocks),
		NumAccounts:          v.GetInt(FlagAccounts),
		OpsPerBlock:          v.GetInt(FlagOpsPerBlock),
		BlockTime:            v.GetDuration(FlagBlockTime),
		InvariantCheckPeriod: v.GetInt(FlagInvariantPeriod),
		AppParams:            make(simtypes.AppParams),
	}
	if cfg.NumAccounts < 1 {
		return cfg, errors.New("at least one account is required")
	}
	if cfg.NumBlocks < 0 || cfg.OpsPerBlock < 0 {
		return cfg, errors.New("blocks and ops per block cannot be negative")
	}

	if path := v.GetString(FlagWeights); path != "" {
		bz, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read weights: %w", err)
		}
		if err := json.Unmarshal(bz, &cfg.AppParams); err != nil {
			return cfg, fmt.Errorf("failed to parse weights %s: %w", path, err)
		}
	}
	return cfg, nil
}
