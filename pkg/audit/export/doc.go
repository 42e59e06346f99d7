// Package export writes audit records as JSON or CSV for the audit CLI.
package export
