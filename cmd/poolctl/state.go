package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AlexsanderHamir/gwizpool/persistence"
	"github.com/AlexsanderHamir/gwizpool/pool"
)

func newStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect saved pool state",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show [file]",
		Short: "Print a pool state file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := persistence.ReadFile(statePathArg(args))
			if err != nil {
				return err
			}
			data, err := persistence.Marshal(s)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate [file]",
		Short: "Check every configuration in a pool state file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := persistence.ReadFile(statePathArg(args))
			if err != nil {
				return err
			}

			invalid := 0
			check := func(scope, t string, r persistence.ConfigRecord) {
				if err := r.Apply(pool.DefaultPoolConfig()).Validate(); err != nil {
					invalid++
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %v\n", scope, t, err)
				}
			}
			for t, r := range s.PoolConfigs {
				check("pool", t, r)
			}
			for level, configs := range s.LevelConfigs {
				for t, r := range configs {
					check("level "+level, t, r)
				}
			}

			if invalid > 0 {
				return fmt.Errorf("%d invalid configurations", invalid)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	})

	return cmd
}

func statePathArg(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return persistence.DefaultStatePath
}
