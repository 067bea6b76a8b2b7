package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/2024luvyavarliani-boop/Upcyclee/internal/llm"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/material"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	labelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// withAdvisor opens the store and runs fn with a model service. Key
// problems are only logged since there is no admin to notify.
func withAdvisor(fn func(advisor *llm.Service) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(newAdvisor(cfg, store, logKeyReselector))
}

func newClassifyCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "classify <description>",
		Short: "Suggest a material category for a description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description := strings.Join(args, " ")
			return withAdvisor(func(advisor *llm.Service) error {
				result := advisor.SuggestCategory(cmd.Context(), description)
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), result)
				}
				fmt.Fprintln(cmd.OutOrStdout(), labelStyle.Render(result.Category))
				fmt.Fprintln(cmd.OutOrStdout(), detailStyle.Render(result.Reason))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func newEstimateCmd() *cobra.Command {
	var (
		name     string
		category string
		weightKg float64
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the CO₂ saved by upcycling a material",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if weightKg < 0 {
				return fmt.Errorf("weight must not be negative, got %v", weightKg)
			}
			return withAdvisor(func(advisor *llm.Service) error {
				estimate := advisor.GetImpactEstimation(cmd.Context(), name, category, weightKg)
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), estimate)
				}
				fmt.Fprintln(cmd.OutOrStdout(), labelStyle.Render(fmt.Sprintf("%s kg CO₂ saved", llm.FormatWeight(estimate.CO2Saved))))
				fmt.Fprintln(cmd.OutOrStdout(), detailStyle.Render(estimate.ImpactStatement))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "material name")
	cmd.Flags().StringVar(&category, "category", string(material.CategoryOther), "material category")
	cmd.Flags().Float64Var(&weightKg, "weight", 0, "weight in kilograms")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("weight")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
