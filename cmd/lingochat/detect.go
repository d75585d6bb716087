package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/szaher/lingochat/internal/language"
)

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <text>...",
		Short: "Print the language detected for a text",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			tag := language.Detect(strings.Join(args, " "))
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", tag, tag.Locale())
		},
	}
}

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages and their speech locales",
		Run: func(cmd *cobra.Command, args []string) {
			for _, tag := range language.All() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", tag, tag.Locale())
			}
		},
	}
}
