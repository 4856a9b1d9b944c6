package repair

import (
	"context"
	"fmt"
)

// Result summarizes one exchange.
type Result struct {
	Peer    string
	Pulled  int  // messages local accepted from remote
	Pushed  int  // messages remote accepted from local
	Skipped bool // digests matched, nothing was transferred
	Err     error
}

// Exchange reconciles local with remote. The pull half asks remote what it
// advertises, fetches the ids local lacks and delivers them locally; the
// push half does the same in the other direction. Hosts whose digests match
// skip both halves.
func Exchange(ctx context.Context, local, remote Peer) (Result, error) {
	res := Result{Peer: remote.ID()}

	ld, err := local.Digest(ctx)
	if err != nil {
		return res, fmt.Errorf("local digest: %w", err)
	}
	rd, err := remote.Digest(ctx)
	if err != nil {
		return res, fmt.Errorf("remote digest: %w", err)
	}
	if ld == rd {
		res.Skipped = true
		return res, nil
	}

	pulled, err := transfer(ctx, remote, local)
	res.Pulled = pulled
	if err != nil {
		return res, fmt.Errorf("pull from %s: %w", remote.ID(), err)
	}

	pushed, err := transfer(ctx, local, remote)
	res.Pushed = pushed
	if err != nil {
		return res, fmt.Errorf("push to %s: %w", remote.ID(), err)
	}
	return res, nil
}

// transfer moves the messages src advertises and dst lacks.
func transfer(ctx context.Context, src, dst Peer) (int, error) {
	offered, err := src.Advertise(ctx)
	if err != nil {
		return 0, fmt.Errorf("advertise: %w", err)
	}
	if len(offered) == 0 {
		return 0, nil
	}
	wanted, err := dst.Missing(ctx, offered)
	if err != nil {
		return 0, fmt.Errorf("missing: %w", err)
	}
	if len(wanted) == 0 {
		return 0, nil
	}
	msgs, err := src.Fetch(ctx, wanted)
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}
	if len(msgs) == 0 {
		return 0, nil
	}
	n, err := dst.Deliver(ctx, msgs)
	if err != nil {
		return 0, fmt.Errorf("deliver: %w", err)
	}
	return n, nil
}
