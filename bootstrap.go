package takkencrawler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/temoto/robotstxt"
)

const defaultRobotsUserAgent = "takkencrawler"

// checkRobotsTxt refuses to start when robots.txt disallows the source URL.
// An unreachable or unreadable robots.txt allows the crawl.
func checkRobotsTxt(ctx context.Context, cfg Config, client *http.Client, logger *Logger) error {
	logger.Info("Checking robots.txt")
	baseURL, err := getBaseUrl(cfg.SourceURL)
	if err != nil {
		return err
	}
	target, err := url.Parse(cfg.SourceURL)
	if err != nil {
		return err
	}
	userAgent := cfg.Engine.UserAgent
	if userAgent == "" {
		userAgent = defaultRobotsUserAgent
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/robots.txt", nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	response, err := client.Do(req)
	if err != nil {
		logger.Warn("Could not fetch robots.txt: %v", err)
		return nil
	}
	defer response.Body.Close()

	robotsData, err := robotstxt.FromResponse(response)
	if err != nil {
		logger.Warn("Error parsing robots.txt: %v", err)
		return nil
	}

	urlPath := target.EscapedPath()
	if urlPath == "" {
		urlPath = "/"
	}
	if !robotsData.FindGroup(userAgent).Test(urlPath) {
		logger.Summary("Crawling is disallowed by robots.txt")
		return fmt.Errorf("%s: %w", urlPath, ErrDisallowedByRobots)
	}
	return nil
}
