// Package types defines the minimal contracts shared between agent
// implementations and the registry: the Executable handler signature and
// common error constructors.
package types
