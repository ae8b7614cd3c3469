package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgnsrekt/murmur/internal/provider"
)

var voicesCmd = &cobra.Command{
	Use:       "voices [PROVIDER]",
	Short:     "List the voices a speech provider offers",
	Long:      paragraph(fmt.Sprintf("\nList the %s each speech provider offers. Pass a provider name to list just its catalog.", keyword("voices"))),
	Example:   paragraph("murmur voices\nmurmur voices kokoro"),
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: kindNames(),
	RunE: func(_ *cobra.Command, args []string) error {
		kinds := provider.Kinds()
		if len(args) == 1 {
			k := provider.Kind(args[0])
			if !k.Valid() {
				return fmt.Errorf("unknown speech provider %q", args[0])
			}
			kinds = []provider.Kind{k}
		}

		for i, k := range kinds {
			if i > 0 {
				fmt.Println()
			}
			fmt.Println(keyword(k.String()))
			vs := provider.Voices(k)
			if len(vs) == 0 {
				fmt.Println("  no built-in catalog; voices come from the endpoint")
				continue
			}
			for _, v := range vs {
				fmt.Println("  " + v)
			}
		}
		return nil
	},
}

func kindNames() []string {
	names := make([]string, 0, len(provider.Kinds()))
	for _, k := range provider.Kinds() {
		names = append(names, k.String())
	}
	return names
}
