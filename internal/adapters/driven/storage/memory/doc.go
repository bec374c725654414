// Package memory provides in-memory driven adapters. Nothing survives a
// restart; they back tests and the "memory" snapshot backend.
package memory
