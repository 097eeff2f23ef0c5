package takkencrawler

import (
	"context"
	"fmt"
	"time"
)

// Run performs one crawl end to end: it opens the browser, submits the
// search, resumes after the stored records and collects the rest.
func Run(ctx context.Context, cfg Config) (Summary, error) {
	if err := cfg.Validate(); err != nil {
		return Summary{}, err
	}
	logger, err := NewLogger(cfg.Name, "")
	if err != nil {
		return Summary{}, err
	}
	defer logger.Close()

	startTime := time.Now()
	logger.Info("Crawler Started! 🚀")
	if cfg.Sinks.CloudLogging {
		if err := logger.AttachCloudLogging(ctx, cfg.Sinks, cfg.Name); err != nil {
			logger.Warn("Cloud Logging disabled: %v", err)
		}
	}

	if cfg.CheckRobotsTxt {
		if err := checkRobotsTxt(ctx, cfg, nil, logger); err != nil {
			return Summary{}, err
		}
	}

	browser, err := OpenBrowser(cfg.Engine, logger)
	if err != nil {
		return Summary{}, err
	}
	defer func() {
		if err := browser.Close(); err != nil {
			logger.Error("Failed to close browser: %v", err)
		}
	}()

	if err := browser.Goto(ctx, cfg.SourceURL); err != nil {
		return Summary{}, err
	}
	if err := ApplySearchConditions(ctx, browser, cfg.Search, cfg.Listing.ReadySelector); err != nil {
		logger.Error("Failed to apply search conditions: %v", err)
		return Summary{}, err
	}

	sinks, err := OpenSinks(ctx, cfg.Sinks, logger)
	if err != nil {
		return Summary{}, err
	}
	defer func() {
		if err := CloseSinks(sinks); err != nil {
			logger.Error("Failed to close sinks: %v", err)
		}
	}()

	summary, err := NewCrawler(cfg, browser, logger, sinks...).Run(ctx)
	if err != nil {
		return summary, err
	}
	logger.Summary("%s: %d new record(s) over %d page(s), %d page(s) skipped on resume", summary.State, summary.NewRecords, summary.PagesVisited, summary.SkippedPages)

	if cfg.Sinks.GCSBucket != "" {
		if err := uploadToBucket(ctx, cfg, logger); err != nil {
			return summary, fmt.Errorf("upload %s: %w", cfg.OutputPath, err)
		}
	}

	logger.Info("Crawler stopped in ⚡ %v", time.Since(startTime))
	return summary, nil
}
