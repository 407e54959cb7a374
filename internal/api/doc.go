// Package api hosts the HTTP server, middleware, and JSON handlers of the
// site. Notable routes:
//   - GET /healthz / readyz for container probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /robots.txt, /sitemap.xml and /sitemaps/{name} for crawlers.
//   - /api/... for visitor tracking, chat history, saved widgets, ChatKit
//     sessions, blog posts and the country list.
//   - POST /admin/cache/purge, guarded by the API key, for CMS webhooks.
//
// HTML pages are mounted from the web package through PageRoutes.
package api
