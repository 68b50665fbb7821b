// Package decisiongraph evaluates the graph rule model: start, group,
// condition, task and nothing nodes joined by edges, walked breadth first.
//
// Node payloads are variants of Data. Traversal dispatches through Visitor,
// so a new node kind must be handled by every visitor before it compiles.
//
// Each node is processed at most once. A node reached by several paths fires
// on its first pop; later arrivals, including cycles, are dropped silently.
package decisiongraph
