package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"recipeshare_backend/blocks"
)

func newTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Inspect recipe layout templates",
	}

	var strict bool
	decode := &cobra.Command{
		Use:   "decode <template>",
		Short: "Detect a stored template's format and print its canonical encoding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, format := blocks.DecodeFormat(args[0])
			if strict && format == blocks.FormatInvalid {
				return fmt.Errorf("template is not a valid block layout")
			}
			canonical, err := blocks.Encode(list)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "format: %s\n", format)
			fmt.Fprintf(out, "blocks: %d\n", len(list))
			for _, b := range list {
				known := ""
				if !b.Type.Known() {
					known = " (unknown)"
				}
				fmt.Fprintf(out, "  - %s%s\n", b.Type, known)
			}
			fmt.Fprintln(out, canonical)
			return nil
		},
	}
	decode.Flags().BoolVar(&strict, "strict", false, "fail on input that is not a recognised layout")

	def := &cobra.Command{
		Use:   "default",
		Short: "Print the default layout in canonical form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := blocks.Encode(blocks.Default())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}

	cmd.AddCommand(decode, def)
	return cmd
}
