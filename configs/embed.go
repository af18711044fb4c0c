// Package configs provides the embedded configuration template for kanun.
//
// The template is embedded at build time with go:embed so it is available
// in every distribution, source builds included. 'kanun config init'
// writes it out as a starting point; internal/config holds the matching
// hardcoded defaults.
package configs

import _ "embed"

// ConfigTemplate is the annotated configuration template written by
// 'kanun config init'. Every value matches the built-in defaults.
//
//go:embed config.example.yaml
var ConfigTemplate string
