package cluster

import (
	"context"

	"auditraft/internal"
)

var (
	callerTerm = internal.NewCtxKey[uint64]("callerTerm")
	callerID   = internal.NewCtxKey[MemberID]("callerID")
)

// SetCallerTerm stamps the caller's current term onto an outbound RPC context.
func SetCallerTerm(ctx context.Context, term uint64) context.Context {
	return internal.SetCtxKey(ctx, callerTerm, term)
}

// GetCallerTerm reads the caller term stamped by SetCallerTerm.
func GetCallerTerm(ctx context.Context) (uint64, bool) {
	return internal.GetCtxKey(ctx, callerTerm)
}

// SetCallerID stamps the calling member's ID onto an outbound RPC context.
func SetCallerID(ctx context.Context, id MemberID) context.Context {
	return internal.SetCtxKey(ctx, callerID, id)
}

// GetCallerID reads the member ID stamped by SetCallerID.
func GetCallerID(ctx context.Context) (MemberID, bool) {
	return internal.GetCtxKey(ctx, callerID)
}
