package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dockhand/dockhand/pkg/catalog"
)

func newVersionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List the engine API versions this build knows about",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, v := range catalog.Default().Versions() {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	}
}

func newCategoriesCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List operation categories for an API version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cats, err := catalog.Default().Categories(st.apiVersion)
			if err != nil {
				return err
			}
			for _, c := range cats {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	}
}

func newOperationsCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "operations <category>",
		Short: "List the operations a category offers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := catalog.Default().Operations(args[0], st.apiVersion)
			if err != nil {
				return err
			}
			for _, op := range ops {
				fmt.Fprintln(cmd.OutOrStdout(), op)
			}
			return nil
		},
	}
}

func newDocCmd(st *state) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "doc <category> <operation>",
		Short: "Describe an operation: method, path, and parameters",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := catalog.Default().Describe(args[0], st.apiVersion, args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(op)
			}
			fmt.Fprintf(out, "%s: %s %s\n", op.Name, op.Method, op.PathTemplate)
			if op.Doc != "" {
				fmt.Fprintf(out, "  %s\n", op.Doc)
			}
			if len(op.Params) > 0 {
				fmt.Fprintln(out, "Parameters:")
				for _, p := range op.Params {
					req := ""
					if p.Required {
						req = " (required)"
					}
					fmt.Fprintf(out, "  %-20s %s%s", p.Name, p.Kind, req)
					if p.Doc != "" {
						fmt.Fprintf(out, "  %s", p.Doc)
					}
					fmt.Fprintln(out)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the operation description as JSON")
	return cmd
}
