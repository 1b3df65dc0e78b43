package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"medica-diagnosis/internal/disease"
	"medica-diagnosis/internal/symptom"
	"medica-diagnosis/internal/validation"
)

func suggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <text>",
		Short: "Print symptom suggestions for the token being typed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")
			for s := range symptom.NewTokenizer(cat).Suggest(text) {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
}

func checkDiseaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-disease <name>",
		Short: "Classify a disease name as known, plausible-new or invalid",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			v := disease.NewValidator(cat, cfg.DiseaseRules()).Classify(strings.Join(args, " "))
			if v.Reason != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", v.Class, v.Reason)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), v.Class)
			}
			if !v.Valid() {
				return fmt.Errorf("invalid disease name")
			}
			return nil
		},
	}
}

func vitalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vitals <field> <value>",
		Short: "Validate one patient form value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, ok := validation.ParseField(args[0])
			if !ok {
				return fmt.Errorf("unknown field %q", args[0])
			}
			if err := validation.ValidateField(field, args[1]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}
