// Package schema has the records, constants and summaries shared by all parts of commitmap.
package schema
