package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/colabbrave/minuteforge/internal/strategy"
	"github.com/colabbrave/minuteforge/internal/types"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the strategy catalog grouped by dimension",
	Run: func(cmd *cobra.Command, args []string) {
		catalog := strategy.NewCatalog()
		baseline := catalog.Baseline()

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		for _, dim := range types.Dimensions {
			ids := catalog.ByDimension(dim)
			if len(ids) == 0 {
				continue
			}
			fmt.Printf("%s\n", cyan(string(dim)))
			for _, id := range ids {
				s, _ := catalog.Get(id)
				marker := " "
				if baseline.Contains(id) {
					marker = color.GreenString("*")
				}
				fmt.Printf("%s %-34s %s\n", marker, id, s.Name)
				if len(s.ConflictsWith) > 0 {
					fmt.Printf("  %s\n", color.YellowString("conflicts: "+strings.Join(s.ConflictsWith, ", ")))
				}
			}
			fmt.Println()
		}
		fmt.Printf("%s baseline strategy\n", color.GreenString("*"))
	},
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}
