package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jyotishdesk/backoffice/config"
)

var tokenOperator string

// tokenCmd manages stored operator tokens
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage operator bearer tokens",
	Long: `Stores, shows or clears the backend token of an operator.

The server must be stopped: the token database is held open while it runs.`,
}

var tokenSetCmd = &cobra.Command{
	Use:   "set [token]",
	Short: "Store a token for an operator",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenSet,
}

var tokenShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show stored tokens and their expiry",
	RunE:  runTokenShow,
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the token of an operator",
	RunE:  runTokenClear,
}

func init() {
	tokenCmd.PersistentFlags().StringVarP(&tokenOperator, "operator", "o", "", "operator name")
	tokenCmd.AddCommand(tokenSetCmd, tokenShowCmd, tokenClearCmd)
}

func runTokenSet(cmd *cobra.Command, args []string) error {
	if tokenOperator == "" {
		return fmt.Errorf("--operator is required")
	}
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	tokens, err := openTokens(cfg)
	if err != nil {
		return err
	}
	defer tokens.Close()

	rec, err := tokens.Set(tokenOperator, args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "stored token for %s\n", rec.Operator)
	if !rec.ExpiresAt.IsZero() {
		fmt.Fprintf(out, "expires %s\n", rec.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}

func runTokenShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	tokens, err := openTokens(cfg)
	if err != nil {
		return err
	}
	defer tokens.Close()

	records, err := tokens.All()
	if err != nil {
		return err
	}
	now := time.Now()
	out := cmd.OutOrStdout()
	for _, rec := range records {
		if tokenOperator != "" && rec.Operator != tokenOperator {
			continue
		}
		expiry := "no expiry"
		switch {
		case rec.Expired(now):
			expiry = "expired " + rec.ExpiresAt.Format(time.RFC3339)
		case !rec.ExpiresAt.IsZero():
			expiry = "expires " + rec.ExpiresAt.Format(time.RFC3339)
		}
		fmt.Fprintf(out, "%-20s saved %s  %s\n", rec.Operator, rec.SavedAt.Format(time.RFC3339), expiry)
	}
	return nil
}

func runTokenClear(cmd *cobra.Command, args []string) error {
	if tokenOperator == "" {
		return fmt.Errorf("--operator is required")
	}
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	tokens, err := openTokens(cfg)
	if err != nil {
		return err
	}
	defer tokens.Close()

	if err := tokens.Clear(tokenOperator); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "cleared token for %s\n", tokenOperator)
	return nil
}
