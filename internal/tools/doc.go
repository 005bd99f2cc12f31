// Package tools defines the NMC tool catalog.
//
// Every tool is read-only. Handlers call the typed API clients in package
// nmc, reduce the responses to the summary views defined there, and return
// JSON-serializable payloads. Argument validation happens in the registry
// before a handler runs, so handlers only check cross-field rules the schema
// cannot express.
package tools
