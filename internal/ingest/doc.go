// Package ingest turns uploaded spreadsheets into grouping items. Columns are
// resolved through a named Schema rather than fixed offsets, and rows are
// expanded into one item per unit of quantity. Malformed rows are rejected
// here so the partitioner only ever sees well-formed items.
package ingest
