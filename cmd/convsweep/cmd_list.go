package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FlavioCFOliveira/GoConvCheck/internal/function"
	"github.com/FlavioCFOliveira/GoConvCheck/internal/sweep"
)

type suiteOutput struct {
	Name      string `json:"name"`
	Lhs       string `json:"lhs"`
	Rhs       string `json:"rhs"`
	Mode      string `json:"mode"`
	Groups    bool   `json:"groups"`
	Available bool   `json:"available"`
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered functions and suites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var suites []suiteOutput
			for _, s := range sweep.Suites() {
				suites = append(suites, suiteOutput{
					Name:      s.Name,
					Lhs:       s.Lhs,
					Rhs:       s.Rhs,
					Mode:      s.Mode.String(),
					Groups:    s.UseGroups,
					Available: s.Available(),
				})
			}

			w := cmd.OutOrStdout()
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(w).Encode(map[string]any{
					"functions": function.Names(),
					"suites":    suites,
				})
			}

			fmt.Fprintln(w, "Functions:")
			for _, name := range function.Names() {
				fmt.Fprintf(w, "  %s\n", name)
			}
			fmt.Fprintln(w, "Suites:")
			for _, s := range suites {
				status := ""
				if !s.Available {
					status = " (unavailable)"
				}
				fmt.Fprintf(w, "  %-34s %s vs %s, %s%s\n", s.Name, s.Lhs, s.Rhs, s.Mode, status)
			}
			return nil
		},
	}
}
