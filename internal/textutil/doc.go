// Package textutil provides small text cleanup helpers shared by the
// extraction and evaluation pipeline.
package textutil
