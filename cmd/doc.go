// Package cmd implements the visitmakkah command line.
//
// Architecture overview:
//   - HTTP: internal/api.Server mounts health, metrics, robots.txt, sitemaps, the JSON API under /api and the
//     admin routes; internal/web renders the HTML pages (home, pSEO guides, blog, chat) on the same router.
//   - Content: blog posts come from Sanity through a read-through cache (memory or Redis). Guide pages are
//     generated from the static keyword and country lists; countries ranked past site.index_threshold are
//     served with noindex and left out of the sitemaps.
//   - User data: chat topics, messages, saved widgets and visitors persist to Postgres (db.dsn) or to the
//     Supabase REST API (supabase.url). Without either the service keeps them in memory.
//   - Events: site events are published to Pub/Sub when pubsub.topic_name is set, otherwise a bounded
//     in-memory buffer keeps the most recent ones.
//   - Observability: zap logs carry request and visitor IDs; Prometheus collectors and OpenTelemetry
//     instruments share /metrics; spans export to Cloud Trace when telemetry.project_id is set.
//
// Commands:
//   - serve: run the HTTP server until SIGINT/SIGTERM.
//   - sitemap export: write sitemap.xml and every child sitemap to the configured blob store.
//   - linkcheck --sitemap URL: fetch a sitemap index and every child, report locations that do not answer 2xx.
//   - migrate up|down: apply or roll back the embedded Postgres schema.
//
// Configuration comes from --config (YAML) and VISITMAKKAH_* environment variables; PORT overrides
// server.port on Cloud Run.
package cmd
