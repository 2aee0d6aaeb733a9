// Package store defines the persistence contract for task records, approval
// tickets and audit events. Implementations live in the memory, fs and nop
// sub-packages; the nop variant backs the best-effort degrade path selected
// at startup when no backend is available.
package store
