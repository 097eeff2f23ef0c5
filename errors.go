package takkencrawler

import "errors"

var (
	// ErrIncompletePage means a listing page did not yield exactly one page of new records.
	ErrIncompletePage = errors.New("page did not yield a full set of new records")
	// ErrPageBoundExceeded guards the paging loop against running forever.
	ErrPageBoundExceeded = errors.New("page bound exceeded")
	// ErrNavigationTimeout wraps any wait that did not settle in time.
	ErrNavigationTimeout = errors.New("navigation timed out")
	// ErrUnexpectedLayout means the rendered view no longer matches the configured selectors.
	ErrUnexpectedLayout = errors.New("unexpected page layout")
	// ErrDisallowedByRobots is returned by the robots.txt pre-flight check.
	ErrDisallowedByRobots = errors.New("crawling is disallowed by robots.txt")
)
