// Package web implements the search and page-fetching collaborators of the
// pipeline on top of plain HTTP.
//
// SearXNG queries a SearXNG instance through its JSON API and implements
// ai.SearchProvider. Fetcher downloads pages, parses them with
// golang.org/x/net/html and reduces them to readable text; it implements
// ai.ContentFetcher.
//
// Failures are reported as core errors: HTTP 429 becomes core.KindRateLimit,
// other non-2xx statuses and transport failures core.KindUpstream. Context
// cancellation is returned unchanged.
package web
