package engine

import (
	"context"
	"os"

	"github.com/Yunitra/AnyDownloadManager/internal/engine/types"
	"github.com/Yunitra/AnyDownloadManager/internal/utils"
)

// ResumeDownload continues a registered download from whatever prefix of the
// part file is already on disk. The prefix is trusted as-is; only the tail
// is re-tiled across the workers. threads defaults to 4 and is clamped like
// StartDownload's.
func (e *Engine) ResumeDownload(ctx context.Context, id string, threads int) error {
	if threads == 0 {
		threads = types.DefaultThreads
	}
	threads = clampThreads(threads)

	meta, ok := e.reg.Meta(id)
	if !ok {
		return ErrUnknownID
	}
	if !meta.AcceptRanges {
		return ErrNoRangeSupport
	}
	if !meta.TotalKnown {
		return ErrUnknownTotal
	}

	cur := partSize(meta.Temp)
	utils.Debug("resume %s: %d/%d bytes present, threads=%d", id, cur, meta.Total, threads)

	if cur >= meta.Total {
		// Everything already arrived in an earlier run; promote the
		// part file without issuing a single request.
		if err := finalize(meta.Temp, meta.Dest); err != nil {
			return e.failed(id, err)
		}
		e.complete(id, meta.Dest)
		return nil
	}

	flag := e.reg.ResetCancel(id)
	return e.runSegmented(ctx, id, meta, threads, flag, cur)
}

// partSize returns the current length of the part file, or 0 when it does
// not exist yet.
func partSize(path string) int64 {
	st, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return st.Size()
}
