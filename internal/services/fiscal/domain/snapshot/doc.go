// Package snapshot defines the entity fiscal profile the obligation engine reads.
//
// Conditions address snapshot attributes by name. Names resolve through a fixed
// accessor table so an unknown name, or an optional value that was never set,
// reads as absent instead of failing.
package snapshot
