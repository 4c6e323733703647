// Package scrape acquires page evidence for audits: it fetches HTML over
// HTTP, extracts structural content, detects anti-automation challenges, and
// optionally captures visual snapshots through an external command.
package scrape
