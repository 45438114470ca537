// Package web bundles the server-rendered pages and browser assets.
package web

import "embed"

// Templates holds layouts, partials and one file per page.
//
//go:embed templates/**/*.html
var Templates embed.FS

// Static holds CSS and JavaScript served under /static/.
//
//go:embed static/**/*
var Static embed.FS
