// Package resource governs the resources used by bulk transfers such as
// backup and restore.
//
// A Controller bounds two things:
//
//   - Transfers: the number of files copied concurrently
//   - IO: a token bucket limiting transfer throughput in bytes per second
//
// # Transfer Limits
//
//	rc := resource.NewController(resource.Config{
//	    MaxTransfers:       4,
//	    IOLimitBytesPerSec: 50 << 20,
//	})
//
//	if err := rc.AcquireTransfer(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseTransfer()
//
//	r := resource.NewRateLimitedReader(ctx, file, rc)
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully; they become no-ops.
package resource
