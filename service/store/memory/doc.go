// Package memory implements the store contract with in-process maps. It is
// the default backend and the reference implementation of the conditional
// ticket-decision update.
package memory
