// Package aggregator computes cumulative folder sizes bottom-up over a
// scanned structure, memoizing within a run and adopting fresh results
// from the persistent cache across runs.
package aggregator

import (
	"context"
	"sort"
	"time"

	"github.com/mordilloSan/go-logger/logger"

	"github.com/damacus/drivescope/internal/cache"
	"github.com/damacus/drivescope/internal/drive"
	"github.com/damacus/drivescope/internal/models"
)

// ProgressFunc reports folders finished out of the total. May be nil.
type ProgressFunc func(done, total int)

// Stats counts what one aggregation run did.
type Stats struct {
	ProcessedFolders int   `json:"processed_folders"`
	TotalBytes       int64 `json:"total_bytes"`
	CacheHits        int   `json:"cache_hits"`
	APICalls         int   `json:"api_calls"`
	Errors           int   `json:"errors"`
	PermissionErrors int   `json:"permission_errors"`
	RateLimitErrors  int   `json:"rate_limit_errors"`
}

// Options configures an Aggregator.
type Options struct {
	// Client is optional; when set, folders missing a modified timestamp
	// get a one-time metadata refresh before computation.
	Client       drive.Client
	Cache        *cache.Cache
	TTL          time.Duration
	RetryBackoff time.Duration
}

// Aggregator runs one aggregation pass at a time; callers serialize
// concurrent passes themselves.
type Aggregator struct {
	client       drive.Client
	cache        *cache.Cache
	ttl          time.Duration
	retryBackoff time.Duration
	sleep        func(time.Duration)

	memo       map[string]int64
	processing map[string]bool
	failed     map[string]bool
	stats      Stats
}

// New returns an Aggregator. A nil cache is replaced by a disabled one.
func New(opts Options) *Aggregator {
	c := opts.Cache
	if c == nil {
		c, _ = cache.New(cache.Options{Enabled: false})
	}
	backoff := opts.RetryBackoff
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	return &Aggregator{
		client:       opts.Client,
		cache:        c,
		ttl:          opts.TTL,
		retryBackoff: backoff,
		sleep:        time.Sleep,
	}
}

// Stats returns the counters from the most recent run.
func (a *Aggregator) Stats() Stats {
	return a.stats
}

func (a *Aggregator) reset() {
	a.memo = make(map[string]int64)
	a.processing = make(map[string]bool)
	a.failed = make(map[string]bool)
	a.stats = Stats{}
}

// Aggregate computes the cumulative size of one folder, including every
// descendant reachable through primary parent links.
func (a *Aggregator) Aggregate(ctx context.Context, folder *models.Item, s *models.Structure) (int64, error) {
	a.reset()
	return a.aggregate(ctx, folder, false)
}

// frame is one entry on the explicit traversal stack. A folder is pushed
// unexpanded, its child folders are pushed on top, and it commits when it
// returns to the top already expanded.
type frame struct {
	folder   *models.Item
	expanded bool
}

func (a *Aggregator) aggregate(ctx context.Context, root *models.Item, force bool) (int64, error) {
	if !root.IsFolder() {
		return root.Size, nil
	}
	if size, ok := a.memo[root.ID]; ok {
		return size, nil
	}

	stack := []frame{{folder: root}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			a.abandon(stack)
			return 0, err
		}

		top := &stack[len(stack)-1]
		f := top.folder

		if top.expanded {
			a.commit(f)
			delete(a.processing, f.ID)
			stack = stack[:len(stack)-1]
			continue
		}

		if _, ok := a.memo[f.ID]; ok || a.failed[f.ID] {
			stack = stack[:len(stack)-1]
			continue
		}

		a.processing[f.ID] = true

		if !force && a.adopt(f) {
			delete(a.processing, f.ID)
			stack = stack[:len(stack)-1]
			continue
		}

		if err := a.refreshMetadata(ctx, f); err != nil {
			if ctx.Err() != nil {
				a.abandon(stack)
				return 0, err
			}
			if !a.handleNodeError(ctx, f, err) {
				delete(a.processing, f.ID)
				stack = stack[:len(stack)-1]
				continue
			}
		}

		top.expanded = true
		for _, child := range f.Children {
			if !child.IsFolder() || a.failed[child.ID] {
				continue
			}
			if a.processing[child.ID] {
				// Cycle: the edge contributes nothing.
				logger.Warnf("aggregate: cycle through folder %q, skipping edge", child.Name)
				continue
			}
			if _, ok := a.memo[child.ID]; ok {
				continue
			}
			stack = append(stack, frame{folder: child})
		}
	}

	if a.failed[root.ID] {
		return 0, nil
	}
	return a.memo[root.ID], nil
}

// handleNodeError applies the per-folder isolation policy to a metadata
// refresh failure. Permission failures finish the folder as empty, rate
// limits earn one retry after a backoff, anything else marks the folder
// failed for the rest of the run. Returns true when processing of the
// folder should continue.
func (a *Aggregator) handleNodeError(ctx context.Context, f *models.Item, err error) bool {
	if drive.IsPermissionDenied(err) {
		a.stats.PermissionErrors++
		a.stats.Errors++
		f.SetCalculatedSize(0)
		f.ScanComplete = true
		f.LastScanned = time.Now().UTC()
		a.memo[f.ID] = 0
		a.cache.PutItem(f)
		logger.Warnf("aggregate: no access to folder %q, recorded as empty", f.Name)
		return false
	}

	if drive.IsRateLimited(err) {
		a.stats.RateLimitErrors++
		logger.Warnf("aggregate: rate limited on folder %q, retrying after %s", f.Name, a.retryBackoff)
		a.sleep(a.retryBackoff)
		retryErr := a.refreshMetadata(ctx, f)
		if retryErr == nil {
			return true
		}
		a.stats.Errors++
		a.failed[f.ID] = true
		logger.Errorf("aggregate: folder %q failed after retry: %v", f.Name, retryErr)
		return false
	}

	a.stats.Errors++
	a.failed[f.ID] = true
	logger.Errorf("aggregate: folder %q: %v", f.Name, err)
	return false
}

// adopt takes over an in-memory or cached result when it is still fresh.
func (a *Aggregator) adopt(f *models.Item) bool {
	if f.CalculatedSize != nil && !a.ShouldRecalculate(f) {
		a.memo[f.ID] = *f.CalculatedSize
		a.stats.CacheHits++
		return true
	}
	cached := a.cache.GetItem(f.ID)
	if cached == nil || cached.CalculatedSize == nil || !cached.ScanComplete {
		return false
	}
	f.CalculatedSize = cached.CalculatedSize
	f.FileCount = cached.FileCount
	f.FolderCount = cached.FolderCount
	f.LastScanned = cached.LastScanned
	f.ScanComplete = cached.ScanComplete
	if a.ShouldRecalculate(f) {
		f.CalculatedSize = nil
		f.ScanComplete = false
		return false
	}
	a.memo[f.ID] = *f.CalculatedSize
	a.stats.CacheHits++
	return true
}

// commit sums the folder's direct files plus memoized child folders and
// records the result in memory and in the persistent cache.
func (a *Aggregator) commit(f *models.Item) {
	var total int64
	var directBytes int64
	fileCount, folderCount := 0, 0
	complete := true

	for _, child := range f.Children {
		if child.IsFolder() {
			folderCount++
			size, ok := a.memo[child.ID]
			if !ok {
				// Unresolved edge (cycle); the subtree is incomplete.
				complete = false
				continue
			}
			total += size
			fileCount += child.FileCount
			folderCount += child.FolderCount
			if !child.ScanComplete {
				complete = false
			}
			continue
		}
		fileCount++
		total += child.Size
		directBytes += child.Size
	}

	f.SetCalculatedSize(total)
	f.FileCount = fileCount
	f.FolderCount = folderCount
	f.LastScanned = time.Now().UTC()
	f.ScanComplete = complete

	a.memo[f.ID] = total
	a.stats.ProcessedFolders++
	a.stats.TotalBytes += directBytes
	a.cache.PutItem(f)
}

// refreshMetadata fetches current metadata for folders the listing gave
// no modified timestamp. This is the engine's only remote call.
func (a *Aggregator) refreshMetadata(ctx context.Context, f *models.Item) error {
	if a.client == nil || !f.ModifiedTime.IsZero() {
		return nil
	}
	a.stats.APICalls++
	rec, err := a.client.GetItem(ctx, f.ID)
	if err != nil {
		return err
	}
	f.ModifiedTime = rec.ModifiedTime
	if rec.Name != "" {
		f.Name = rec.Name
	}
	return nil
}

// abandon clears the in-progress marks of an aborted traversal.
func (a *Aggregator) abandon(stack []frame) {
	for _, fr := range stack {
		delete(a.processing, fr.folder.ID)
	}
}

// ShouldRecalculate reports whether a folder's stored result is stale:
// never computed, or a direct child changed after the last scan. A result
// younger than the TTL is always trusted.
func (a *Aggregator) ShouldRecalculate(folder *models.Item) bool {
	if folder.CalculatedSize == nil {
		return true
	}
	if !folder.LastScanned.IsZero() && time.Since(folder.LastScanned) < a.ttl {
		return false
	}
	for _, child := range folder.Children {
		if child.ModifiedTime.After(folder.LastScanned) {
			return true
		}
	}
	return false
}

// AggregateAll computes sizes for every folder in the structure with
// per-folder error isolation, then refreshes the structure totals from
// the roots and persists the snapshot.
func (a *Aggregator) AggregateAll(ctx context.Context, s *models.Structure, force bool, onProgress ProgressFunc) error {
	a.reset()
	return a.runAll(ctx, s, orderedFolders(s), force, onProgress)
}

// AggregateIncremental recomputes only the folders whose stored results
// are stale, invalidating their cache entries first.
func (a *Aggregator) AggregateIncremental(ctx context.Context, s *models.Structure, onProgress ProgressFunc) error {
	a.reset()
	var stale []*models.Item
	for _, folder := range orderedFolders(s) {
		if a.ShouldRecalculate(folder) {
			stale = append(stale, folder)
		}
	}
	for _, folder := range stale {
		a.cache.InvalidateItem(folder.ID)
		folder.CalculatedSize = nil
		folder.ScanComplete = false
	}
	logger.Infof("incremental aggregation: %d of %d folders stale", len(stale), s.TotalFolders)
	return a.runAll(ctx, s, stale, false, onProgress)
}

func (a *Aggregator) runAll(ctx context.Context, s *models.Structure, folders []*models.Item, force bool, onProgress ProgressFunc) error {
	total := len(folders)
	for i, folder := range folders {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := a.aggregate(ctx, folder, force); err != nil {
			return err
		}
		if onProgress != nil {
			onProgress(i+1, total)
		}
	}

	a.finalize(s)
	a.cache.PutStructure(cache.DefaultStructureName, s)
	logger.Infof("aggregation done: %d folders processed, %d cache hits, %d errors",
		a.stats.ProcessedFolders, a.stats.CacheHits, a.stats.Errors)
	return nil
}

// finalize recomputes the structure totals from the roots so multi-parent
// items and nested folders are counted once.
func (a *Aggregator) finalize(s *models.Structure) {
	var totalSize int64
	for _, root := range s.RootFolders {
		totalSize += root.DisplaySize()
	}
	for _, f := range s.RootFiles {
		totalSize += f.Size
	}
	s.TotalSize = totalSize

	// Failures are isolated per folder and surfaced through ScanErrors;
	// the scan itself still ran to completion.
	s.ScanComplete = true
	s.ScanErrors = a.stats.Errors
	s.ScanTimestamp = time.Now().UTC()
}

// orderedFolders returns every folder, roots-first depth-first, with any
// unreachable folders appended in ID order so runs are deterministic.
func orderedFolders(s *models.Structure) []*models.Item {
	var out []*models.Item
	seen := make(map[string]bool)

	var walk func(f *models.Item)
	walk = func(f *models.Item) {
		if seen[f.ID] {
			return
		}
		seen[f.ID] = true
		out = append(out, f)
		for _, child := range f.Children {
			if child.IsFolder() {
				walk(child)
			}
		}
	}
	for _, root := range s.RootFolders {
		walk(root)
	}

	var rest []*models.Item
	for _, item := range s.Items {
		if item.IsFolder() && !seen[item.ID] {
			rest = append(rest, item)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].ID < rest[j].ID })
	return append(out, rest...)
}
