package main

import (
	"encoding/csv"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/prospect-research/internal/model"
)

var (
	batchFile  string
	batchLimit int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Research companies from a CSV file",
	Long:  "Reads a CSV of name,url rows and researches each company concurrently.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		companies, err := readCompanyCSV(batchFile)
		if err != nil {
			return err
		}
		if batchLimit > 0 && len(companies) > batchLimit {
			companies = companies[:batchLimit]
		}
		zap.L().Info("batch start",
			zap.Int("companies", len(companies)),
			zap.Int("concurrency", cfg.Batch.MaxConcurrentCompanies))

		var done, failed atomic.Int64
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Batch.MaxConcurrentCompanies)
		for _, company := range companies {
			g.Go(func() error {
				if _, err := env.Engine.Research(gctx, company.URL, company.Name); err != nil {
					failed.Add(1)
					zap.L().Error("company research failed",
						zap.String("company", company.URL),
						zap.Error(err))
					return nil
				}
				done.Add(1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return eris.Wrap(err, "batch run")
		}

		zap.L().Info("batch complete",
			zap.Int64("succeeded", done.Load()),
			zap.Int64("failed", failed.Load()))
		return nil
	},
}

// readCompanyCSV parses name,url rows, skipping a header row and blank
// lines.
func readCompanyCSV(path string) ([]model.Company, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var companies []model.Company
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "parse %s", path)
		}
		if len(row) < 2 {
			continue
		}
		name := strings.TrimSpace(row[0])
		url := strings.TrimSpace(row[1])
		if url == "" || strings.EqualFold(url, "url") {
			continue
		}
		companies = append(companies, model.Company{Name: name, URL: url})
	}
	return companies, nil
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "CSV file of name,url rows (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of companies to process (0 = all)")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}
