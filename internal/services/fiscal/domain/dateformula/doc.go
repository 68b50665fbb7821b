// Package dateformula computes obligation due dates from declarative formulas.
//
// A formula is resolved against a Basis: the target fiscal year, the entity
// closing date and, for repeated templates, the instance month or quarter.
// All arithmetic is calendar based. Month shifts clamp the day to the length
// of the target month, so 31 December plus six months is 30 June.
//
// Calculate never fails. An unknown formula type or missing parameter yields
// no date, and the caller keeps the obligation without a deadline.
package dateformula
