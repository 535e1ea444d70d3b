package research

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/prospect-research/internal/fetcher"
	"github.com/sells-group/prospect-research/internal/model"
	"github.com/sells-group/prospect-research/pkg/anthropic"
)

var aboutPaths = []string{"", "/about", "/about-us", "/company", "/our-story", "/services", "/products"}

const (
	defaultFactConcurrency = 5
	maxFactPromptChars     = 24000
	factMaxTokens          = 1024
)

const factPrompt = `You are a business research assistant. Based on the website text below,
return a single JSON object with these keys:
  "overview": one-paragraph company summary,
  "products_services": list of products or services offered,
  "locations": list of operating locations mentioned,
  "certifications": list of certifications or accreditations,
  "contact_info": phone, email or address details,
  "other_details": anything else notable.
Use "Not found" for anything the text does not support. Return ONLY the JSON object.

Website text:
%s`

// ExtractCompanyFacts gathers text from a site's informational pages in
// parallel and asks the completion service to structure it. Malformed
// completions degrade to an empty fact set.
func ExtractCompanyFacts(ctx context.Context, fetch fetcher.Client, ai anthropic.Client, aiModel, domain string, concurrency int) (model.CompanyFacts, error) {
	base, _, err := normalizeDomain(domain)
	if err != nil {
		return nil, err
	}
	if concurrency <= 0 {
		concurrency = defaultFactConcurrency
	}

	var (
		mu    sync.Mutex
		texts []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, path := range aboutPaths {
		g.Go(func() error {
			out := fetch.Fetch(gctx, base+path, fetcher.Options{Retries: 1})
			if !out.OK() {
				return nil
			}
			doc, err := parseDoc(out.Body)
			if err != nil {
				return nil
			}
			if text := visibleText(doc); text != "" {
				mu.Lock()
				texts = append(texts, text)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	combined := strings.Join(texts, "\n\n")
	if combined == "" {
		return model.CompanyFacts{}, nil
	}
	combined = model.Clip(combined, maxFactPromptChars)

	resp, err := ai.Complete(ctx, anthropic.CompletionRequest{
		Model:     aiModel,
		Prompt:    fmt.Sprintf(factPrompt, combined),
		MaxTokens: factMaxTokens,
	})
	if err != nil {
		zap.L().Warn("fact completion failed", zap.String("domain", base), zap.Error(err))
		return model.CompanyFacts{}, nil
	}
	resp.Usage.LogCost(resp.Model, "company facts")

	facts := model.CompanyFacts(RepairJSONMap(resp.Text))
	if len(facts) == 0 {
		zap.L().Warn("fact completion unparsable", zap.String("domain", base))
	}
	return facts, nil
}
