// Package source implements syncrun.SourceAdapter over delimited text exports.
//
// A tenant's logical table is one file named <table>.csv inside a per-tenant
// folder, either on a local directory tree or in an S3-compatible bucket:
//
//	<root>/<tenant-id>/articles.csv
//	<root>/<tenant-id>/clients.csv
//	<root>/<tenant-id>/providers.csv
//
// A missing file means the tenant has no such table and yields no rows.
package source
