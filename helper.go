package takkencrawler

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// normalizeText collapses every whitespace run into one space and trims the ends.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// compactText drops all whitespace; used where layout spacing must not matter.
func compactText(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func documentFromHTML(html string) (*goquery.Document, error) {
	document, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return document, nil
}

func writePageContentToFile(directory, html, url, msg string) error {
	if directory == "" {
		return nil
	}
	if html == "" {
		html = "No Page Content Found"
	}
	html = strings.TrimSpace(msg) + "\n" + html
	html = fmt.Sprintf("<!-- Time: %v \n Page Url: %s -->\n%s", time.Now(), url, html)
	if err := os.MkdirAll(directory, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(directory, generateFilename(url)), []byte(html), 0644)
}

// generateFilename generates a filename based on URL and current time
func generateFilename(rawURL string) string {
	invalidChars := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	for _, char := range invalidChars {
		rawURL = strings.ReplaceAll(rawURL, char, "_")
	}
	return time.Now().Format("2006-01-02_150405") + "_" + rawURL + ".html"
}

// shouldBlockResource checks if a resource should be blocked based on its type and URL.
func shouldBlockResource(engine Engine, resourceType string, url string) bool {
	if resourceType == "image" || resourceType == "font" {
		return true
	}

	for _, blockedURL := range engine.BlockedURLs {
		if strings.Contains(url, blockedURL) {
			return true
		}
	}

	return false
}

func getBaseUrl(urlString string) (string, error) {
	parsedURL, err := url.Parse(urlString)
	if err != nil {
		return "", fmt.Errorf("failed to parse url %s: %w", urlString, err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return "", fmt.Errorf("failed to parse url %s: missing scheme or host", urlString)
	}
	return parsedURL.Scheme + "://" + parsedURL.Host, nil
}
