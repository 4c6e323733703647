// Package language normalizes and validates the language tags attached to
// audit requests and glossaries.
package language
