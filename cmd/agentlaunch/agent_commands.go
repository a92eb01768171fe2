package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"agentlaunch/internal/services/fal"
	"agentlaunch/internal/wizard"
)

func newAgentCommand(ctx *commandContext) *cobra.Command {
	agentCmd := &cobra.Command{
		Use:   "agent",
		Short: "Manage the registered agent identity",
	}

	agentCmd.AddCommand(newAgentRegisterCommand(ctx))
	agentCmd.AddCommand(newAgentShowCommand(ctx))
	agentCmd.AddCommand(newAgentResetCommand(ctx))

	return agentCmd
}

func newAgentRegisterCommand(ctx *commandContext) *cobra.Command {
	var name string
	var soul string
	var random bool

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new agent on Moltbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			machine, err := ctx.machine(nil)
			if err != nil {
				return err
			}
			if machine.Stage() != wizard.StageCreate {
				return errors.New("an agent is already registered; run `agentlaunch agent reset` first")
			}

			if random {
				falClient, err := ctx.falClient()
				if err != nil {
					return err
				}
				if name == "" {
					if name, err = falClient.Randomize(cmd.Context(), fal.KindName); err != nil {
						return fmt.Errorf("randomize name: %w", err)
					}
				}
				if soul == "" {
					if soul, err = falClient.Randomize(cmd.Context(), fal.KindSoul); err != nil {
						return fmt.Errorf("randomize soul: %w", err)
					}
				}
			}

			agent, err := machine.Register(cmd.Context(), name, soul)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Agent %s registered.\n\n", agent.Name)
			fmt.Fprintf(out, "API key:    %s\n", agent.APIKey)
			fmt.Fprintf(out, "Claim link: %s\n\n", agent.ClaimURL)
			fmt.Fprintln(out, "Save the API key; it is only shown here and in the local session file.")
			fmt.Fprintln(out, "Open the claim link and complete Twitter verification before launching.")
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Agent name")
	cmd.Flags().StringVar(&soul, "soul", "", "Agent personality description")
	cmd.Flags().BoolVar(&random, "random", false, "Fill missing fields with generated values")
	return cmd
}

func newAgentShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the stored agent session",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.sessionStore()
			if err != nil {
				return err
			}
			session, found, err := store.Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !found {
				fmt.Fprintln(out, "No agent registered. Run `agentlaunch agent register`.")
				return nil
			}
			fmt.Fprintf(out, "Name:       %s\n", session.Name)
			fmt.Fprintf(out, "API key:    %s\n", session.APIKey)
			fmt.Fprintf(out, "Claim link: %s\n", session.ClaimURL)
			return nil
		},
	}
}

func newAgentResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget the stored agent session",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.sessionStore()
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Agent session cleared.")
			return nil
		},
	}
}
