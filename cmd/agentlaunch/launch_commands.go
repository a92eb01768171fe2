package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"agentlaunch/internal/launch"
	"agentlaunch/internal/wizard"
)

func newLaunchCommand(ctx *commandContext) *cobra.Command {
	var params wizard.TokenParams

	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Launch a token through the registered agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openJournal()
			if err != nil {
				return err
			}
			defer store.Close()

			machine, err := ctx.machine(store)
			if err != nil {
				return err
			}
			if machine.Stage() == wizard.StageCreate {
				return errors.New("no agent registered; run `agentlaunch agent register` first")
			}
			// Running the launch command doubles as the verification
			// acknowledgment the web wizard collects with a button.
			if machine.Stage() == wizard.StageVerify {
				if err := machine.ConfirmVerified(); err != nil {
					return err
				}
			}

			result, err := machine.Launch(cmd.Context(), params)
			if err != nil {
				return launchFailure(err)
			}
			printResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&params.Name, "name", "", "Token name (max 50 chars)")
	cmd.Flags().StringVar(&params.Symbol, "symbol", "", "Token symbol (max 10 chars, uppercased)")
	cmd.Flags().StringVar(&params.Description, "description", "", "Token description")
	cmd.Flags().StringVar(&params.Wallet, "wallet", "", "Base wallet address receiving the token")
	cmd.Flags().BoolVar(&params.SkipLogo, "no-logo", false, "Skip logo generation and use the default image")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("symbol")
	_ = cmd.MarkFlagRequired("wallet")
	return cmd
}

func newResumeCommand(ctx *commandContext) *cobra.Command {
	var apiKey string

	cmd := &cobra.Command{
		Use:   "resume <post-id>",
		Short: "Retry the launch for an already-created post",
		Long: "Retry the token launch for a post that was created but whose launch\n" +
			"did not complete, for example after the launch service reported it was\n" +
			"temporarily unavailable.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := apiKey
			if key == "" {
				store, err := ctx.sessionStore()
				if err != nil {
					return err
				}
				session, found, err := store.Load()
				if err != nil {
					return err
				}
				if !found {
					return errors.New("no agent session found; pass --api-key")
				}
				key = session.APIKey
			}

			journalStore, err := ctx.openJournal()
			if err != nil {
				return err
			}
			defer journalStore.Close()

			orchestrator, err := ctx.orchestrator(journalStore)
			if err != nil {
				return err
			}
			result, err := orchestrator.Resume(cmd.Context(), key, args[0])
			if err != nil {
				return launchFailure(err)
			}
			printResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "Moltbook API key (defaults to the stored session)")
	return cmd
}

func printResult(cmd *cobra.Command, result *launch.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "🎉 Token launched!")
	fmt.Fprintf(out, "Clanker:  %s\n", result.ClankerURL)
	if result.TokenAddress != "" {
		fmt.Fprintf(out, "Address:  %s\n", result.TokenAddress)
	}
	fmt.Fprintf(out, "Post id:  %s\n", result.PostID)
}

func launchFailure(err error) error {
	message := wizard.ClassifyLaunchError(err)
	if flowErr, ok := launch.AsFlowError(err); ok && flowErr.PostID != "" {
		return fmt.Errorf("%s\nresume later with: agentlaunch resume %s", message, flowErr.PostID)
	}
	return errors.New(message)
}
