// Package fiu is a fault-injection runtime: named points of failure that
// application code consults ("fail(name)") and that tests or operator
// tooling enable, disable, or drive probabilistically, externally, or by
// call-stack predicate, optionally over a named-pipe control channel.
package fiu
