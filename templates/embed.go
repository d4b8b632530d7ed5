// Package templates provides embedded configuration templates.
package templates

import "embed"

// Config contains the annotated default config written by packlint init.
// Comments in the template document every key; the values match the
// compiled-in defaults.
//
//go:embed config.yaml
var Config embed.FS
