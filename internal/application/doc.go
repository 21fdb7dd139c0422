// Package application wires configuration into a running server. It loads
// the product catalog, opens selection storage, registers Prometheus
// collectors, and builds the API router and HTTP server so that the main
// package only parses flags and handles shutdown.
package application
