package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vango-dev/statesvc/internal/errors"
)

func errorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "errors [code]",
		Short: "List error codes or explain one",
		Long: `List every statesvc error code, or print the full explanation of one.

Examples:
  statesvc errors
  statesvc errors E002`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return explainError(cmd.OutOrStdout(), args[0])
			}
			listErrors(cmd.OutOrStdout())
			return nil
		},
	}
}

func listErrors(w io.Writer) {
	for _, code := range errors.GetAllCodes() {
		t, _ := errors.GetTemplate(code)
		fmt.Fprintf(w, "  %-10s %s\n", t.Category, errors.New(code).FormatCompact())
	}
}

func explainError(w io.Writer, code string) error {
	code = strings.ToUpper(code)
	if _, ok := errors.GetTemplate(code); !ok {
		return fmt.Errorf("unknown error code %q (run 'statesvc errors' for the list)", code)
	}
	errors.Fprint(w, errors.New(code))
	return nil
}
