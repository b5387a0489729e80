// Package crawler implements the breadth-first site traversal used by the
// structure audit: it fetches every reachable same-origin page once, up to a
// depth bound, and accumulates the internal inlink graph.
package crawler
