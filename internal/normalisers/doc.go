// Package normalisers provides implementations of the Normaliser interface
// for the file types the assistant ingests. Each normaliser turns uploaded
// bytes into either free text (manuals, notes) or rows (logs, fault tables).
//
// Normalisers are handed to the ingest service at startup.
package normalisers
