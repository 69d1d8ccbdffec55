package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dshills/reviewgate/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the provider, timeout and policy settings",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}

		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(os.Stderr, "reviewgate config already exists at %s; edit it or use 'reviewgate config set'\n", path)
			return nil
		}

		cfg := config.Default()
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Fprintf(os.Stdout, "Wrote default reviewgate config to %s\n", path)
		fmt.Fprintln(os.Stdout, "Next: pick a provider and model with 'reviewgate config set', then run 'reviewgate hook install' in a repository.")
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFile()
		if err != nil {
			return err
		}

		if err := config.SetField(&cfg, args[0], args[1]); err != nil {
			return err
		}

		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		fmt.Fprintf(os.Stdout, "Saved %s = %s\n", args[0], args[1])
		if env := envOverride(args[0]); env != "" {
			fmt.Fprintf(os.Stderr, "warning: %s is set in the environment and overrides the saved %s\n", env, args[0])
		}
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the configuration a review would run with (file, .env and environment merged)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(nil)
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}

		fmt.Fprintln(os.Stdout, string(data))
		return nil
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List configuration keys and their environment variables",
	Run: func(cmd *cobra.Command, args []string) {
		for _, k := range config.Keys() {
			fmt.Fprintf(os.Stdout, "%-26s %s\n", k, config.EnvName(k))
		}
	},
}

// envOverride names the environment variable shadowing key, or "" when it
// is unset.
func envOverride(key string) string {
	env := config.EnvName(key)
	if _, ok := os.LookupEnv(env); !ok {
		return ""
	}
	return env
}

func init() {
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configShowCmd)
}
