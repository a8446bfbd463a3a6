// Package ingest implements the per-connection Ingestion Handler.
//
// Wire format: newline-delimited text. The first line on a connection is the
// book title; every following line is appended to that book. A trailing \r is
// stripped, and a final line without a terminating newline still counts.
// Titles and lines longer than library.MaxLineLength characters are truncated.
//
// When the peer disconnects (or a read fails) the handler exports the lines
// this connection appended, under a new monotonically increasing export id.
// A connection that sent nothing creates no book and exports nothing; one that
// sent only a title exports an empty line sequence.
package ingest
