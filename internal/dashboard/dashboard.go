// Package dashboard embeds the dashboard's HTML templates and static assets.
package dashboard

import "embed"

//go:embed templates/*.html
var Templates embed.FS

//go:embed assets/*
var Assets embed.FS
