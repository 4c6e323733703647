// Package glossary resolves which terminology reference applies to an audit.
package glossary
