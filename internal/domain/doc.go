// Package domain contains the core entities of the processing pipeline:
// items fetched from the mail source, extraction results produced by the
// LLM gateway, and the durable records (processed, pending review, error
// log) that drive idempotent processing.
//
// Domain types carry their own validation. They hold no references to
// stores, clients, or other infrastructure.
package domain
