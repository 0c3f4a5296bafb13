package folio

import "embed"

// EmbeddedAssets contains static assets shipped with folio: analytics.js,
// the browser widget that posts page views and web vitals.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
