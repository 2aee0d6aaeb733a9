package types

import "context"

// Executable is the unit of work behind a single agent action. The registry
// converts the opaque request payload into the action's typed input before
// invocation and hands the handler a pre-allocated typed output.
type Executable func(ctx context.Context, input, output interface{}) error
