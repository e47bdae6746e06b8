// Package core provides the business logic of the campaign dashboard.
//
// It holds everything between the HTTP layer and the spreadsheet pipeline and
// can be used by web handlers, the CLI or tests without modification.
//
// # Architecture
//
//   - Workbooks: shared workbooks come from a directory [workbook.Catalog];
//     uploaded workbooks live in the uploading user's [Session].
//   - Service: the entry point for uploads, views, exports and charts. Every
//     view is a full recompute of the filter pipeline in package table.
//   - Sessions: explicit per-user state (counters and uploads) managed by a
//     [SessionManager] and expired after an idle timeout.
//   - Audit: uploads, views and exports are recorded through an [AuditStore],
//     backed by Postgres when configured and by memory otherwise.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - WB001-WB004: Workbook errors (unreadable, format, not found, empty)
//   - SHT001: Sheet not found
//   - COL001-COL002: Column errors (filter columns missing, unknown column)
//   - CHT001-CHT002: Chart errors (no numeric data, non-numeric column)
//   - FILE001-FILE005: Upload file errors (size, missing, empty)
//   - UPL002-UPL005: Upload processing (busy, cancelled, timeout)
//   - SES001: Session expired
package core
