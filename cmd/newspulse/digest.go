package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RobinCoderZhao/newspulse/internal/digest"
)

func digestCmd(opts *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Weekly digest commands",
	}
	cmd.AddCommand(digestRunCmd(opts))
	return cmd
}

func digestRunCmd(opts *globalOpts) *cobra.Command {
	var noSend bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate a digest for every reader with preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			rep, err := digest.New(a.store, a.store, a.llm, a.digestOptions(!noSend)...).Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("digest run: %w", err)
			}

			if opts.jsonOut {
				return printJSON(cmd.OutOrStdout(), rep)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Digests: %d readers, %d generated, %d skipped, %d failed, %d delivered\n",
				rep.Users, rep.Generated, rep.Skipped, rep.Failed, rep.Delivered)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noSend, "no-send", false, "store digests without delivering them")
	return cmd
}
