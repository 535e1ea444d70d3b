package main

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-research/internal/research"
)

var (
	researchURL  string
	researchName string
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Research a single company website",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Engine.Research(ctx, researchURL, researchName)
		if err != nil {
			var blocked *research.PolicyBlockedError
			var unreachable *research.DomainUnreachableError
			if errors.As(err, &blocked) || errors.As(err, &unreachable) {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				_ = enc.Encode(map[string]string{"error": err.Error()})
				return err
			}
			return eris.Wrap(err, "research run")
		}

		zap.L().Info("research complete",
			zap.String("company", result.Company.URL),
			zap.Int("articles", len(result.Articles)),
			zap.Int("locations", len(result.Locations)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	researchCmd.Flags().StringVar(&researchURL, "url", "", "company website URL (required)")
	researchCmd.Flags().StringVar(&researchName, "name", "", "company name")
	_ = researchCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(researchCmd)
}
