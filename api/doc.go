// Package api exposes an Enricher over HTTP.
//
// Routes live under /v1 and require "Authorization: Bearer <token>" when a
// token is configured. GET /healthz is always public.
package api
