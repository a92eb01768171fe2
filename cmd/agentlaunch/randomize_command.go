package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"agentlaunch/internal/services/fal"
)

func newRandomizeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:       "randomize {name|soul}",
		Short:     "Generate an agent name or personality",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"name", "soul"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var kind fal.Kind
			switch args[0] {
			case "name":
				kind = fal.KindName
			case "soul":
				kind = fal.KindSoul
			default:
				return fmt.Errorf("unknown kind %q (want name or soul)", args[0])
			}

			falClient, err := ctx.falClient()
			if err != nil {
				return err
			}
			result, err := falClient.Randomize(cmd.Context(), kind)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		},
	}
}
