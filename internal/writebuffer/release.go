package writebuffer

import (
	"context"
	"sort"
)

// Uploader is the subset of the HTTP API client Release needs. httpapi.Client
// satisfies it without an explicit assertion.
type Uploader interface {
	ReadRange(ctx context.Context, path string, offset, length int64) ([]byte, error)
	WriteFull(ctx context.Context, path string, data []byte) error
}

// Release drives the on-release merge and upload:
//
//  1. A handle opened with truncate synthesizes an empty baseline.
//  2. Otherwise, fetch the remote baseline — skipped if the buffered writes
//     collectively cover [0, finalSize).
//  3. Overlay the writes onto the baseline in write order, so a later write
//     wins on overlap, extending the buffer when a write reaches past the
//     current size.
//  4. PUT the merged bytes.
//
// currentSize is the file's size before this handle's writes are applied
// (0 for a freshly created file). On any error the caller MUST still drop
// the handle: dirty state is never retained past a failed release.
func Release(ctx context.Context, api Uploader, h *Handle, currentSize int64) (finalSize int64, err error) {
	writes, truncate := h.snapshot()

	finalSize = 0
	if !truncate {
		finalSize = currentSize
	}
	for _, w := range writes {
		if end := w.offset + int64(len(w.data)); end > finalSize {
			finalSize = end
		}
	}

	var baseline []byte
	if !truncate && finalSize > 0 && !coversFullRange(writes, finalSize) {
		fetchLen := currentSize
		if fetchLen > finalSize {
			fetchLen = finalSize
		}
		if fetchLen > 0 {
			baseline, err = api.ReadRange(ctx, h.path, 0, fetchLen)
			if err != nil {
				return 0, err
			}
		}
	}

	merged := make([]byte, finalSize)
	copy(merged, baseline)
	for _, w := range writes {
		copy(merged[w.offset:], w.data)
	}

	if err := api.WriteFull(ctx, h.path, merged); err != nil {
		return 0, err
	}

	return finalSize, nil
}

// coversFullRange reports whether the union of the write intervals covers
// [0, size) without gaps, in which case fetching a baseline is pointless.
func coversFullRange(writes []write, size int64) bool {
	if size <= 0 {
		return true
	}

	type interval struct{ start, end int64 }
	ivs := make([]interval, 0, len(writes))
	for _, w := range writes {
		ivs = append(ivs, interval{w.offset, w.offset + int64(len(w.data))})
	}
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].start < ivs[j].start })

	var covered int64
	for _, iv := range ivs {
		if iv.start > covered {
			return false
		}
		if iv.end > covered {
			covered = iv.end
		}
	}
	return covered >= size
}
