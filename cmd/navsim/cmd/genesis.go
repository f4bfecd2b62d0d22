package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/provlabs/navvault"
	"github.com/provlabs/navvault/simapp"
)

// genesisCommand groups commands working on app genesis files.
func genesisCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genesis",
		Short: "Genesis file subcommands",
	}
	cmd.AddCommand(defaultGenesisCommand(), validateGenesisCommand())
	return cmd
}

func defaultGenesisCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "default",
		Short: "Print an app genesis with default vault params",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gen := simapp.DefaultGenesis()
			if err := json.Unmarshal(navvault.NewAppModuleBasic().DefaultGenesis(nil), gen.Vault); err != nil {
				return err
			}
			bz, err := simapp.MarshalGenesis(gen)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(bz))
			return err
		},
	}
}

func validateGenesisCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate the vault section of an app genesis file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bz, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read genesis: %w", err)
			}
			var appGen struct {
				Vault json.RawMessage `json:"vault"`
			}
			if err := json.Unmarshal(bz, &appGen); err != nil {
				return fmt.Errorf("failed to parse genesis %s: %w", args[0], err)
			}
			if len(appGen.Vault) == 0 {
				return fmt.Errorf("genesis %s has no vault section", args[0])
			}
			if err := navvault.NewAppModuleBasic().ValidateGenesis(nil, nil, appGen.Vault); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", args[0])
			return err
		},
	}
}
