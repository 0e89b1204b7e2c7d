// Package explorer orchestrates a full account scan: fetch the listing,
// build the hierarchy, aggregate sizes, and persist the snapshot.
package explorer

import (
	"context"
	"fmt"
	"time"

	"github.com/mordilloSan/go-logger/logger"

	"github.com/damacus/drivescope/internal/aggregator"
	"github.com/damacus/drivescope/internal/cache"
	"github.com/damacus/drivescope/internal/drive"
	"github.com/damacus/drivescope/internal/models"
)

// ProgressFunc receives scan progress as a percentage and a phase label.
// May be nil.
type ProgressFunc func(percent int, phase string)

// ScanOptions controls one scan.
type ScanOptions struct {
	// UseCache serves the cached snapshot when it is scan-complete.
	UseCache bool
	// CalculateSizes runs the aggregation pass after fetching.
	CalculateSizes bool
	// Force recomputes every folder, ignoring cached results.
	Force bool
	// Incremental recomputes only stale folders.
	Incremental bool
}

// Options wires an Explorer.
type Options struct {
	Client       drive.Client
	Cache        *cache.Cache
	Aggregator   *aggregator.Aggregator
	PageSize     int64
	RequestDelay time.Duration
}

// Explorer runs scans. Safe for sequential use; callers serialize
// concurrent scans.
type Explorer struct {
	client       drive.Client
	cache        *cache.Cache
	aggregator   *aggregator.Aggregator
	pageSize     int64
	requestDelay time.Duration
	sleep        func(time.Duration)
}

// New returns an Explorer. A nil cache is replaced by a disabled one.
func New(opts Options) *Explorer {
	c := opts.Cache
	if c == nil {
		c, _ = cache.New(cache.Options{Enabled: false})
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = drive.DefaultPageSize
	}
	return &Explorer{
		client:       opts.Client,
		cache:        c,
		aggregator:   opts.Aggregator,
		pageSize:     pageSize,
		requestDelay: opts.RequestDelay,
		sleep:        time.Sleep,
	}
}

// Progress bands for the scan phases.
const (
	fetchStart     = 0
	buildStart     = 30
	aggregateStart = 60
	persistStart   = 95
	scanDone       = 100
)

// ScanCompleteDrive fetches every non-trashed item in the account and
// returns the assembled structure. With UseCache set, a scan-complete
// cached snapshot short-circuits the whole scan with zero remote calls.
func (e *Explorer) ScanCompleteDrive(ctx context.Context, opts ScanOptions, onProgress ProgressFunc) (*models.Structure, error) {
	report := func(percent int, phase string) {
		if onProgress != nil {
			onProgress(percent, phase)
		}
	}

	if opts.UseCache && !opts.Force {
		if cached := e.cache.GetStructure(cache.DefaultStructureName); cached != nil && cached.ScanComplete {
			logger.Infof("scan: serving cached snapshot (%d items)", len(cached.Items))
			report(scanDone, "cached")
			return cached, nil
		}
	}

	report(fetchStart, "fetching")
	records, err := e.fetchAll(ctx, onProgress)
	if err != nil {
		return nil, err
	}

	report(buildStart, "building")
	structure := e.buildStructure(records)
	logger.Infof("scan: %d files, %d folders fetched", structure.TotalFiles, structure.TotalFolders)

	if opts.CalculateSizes && e.aggregator != nil {
		report(aggregateStart, "aggregating")
		aggProgress := func(done, total int) {
			if total == 0 {
				return
			}
			pct := aggregateStart + (persistStart-aggregateStart)*done/total
			report(pct, "aggregating")
		}
		if opts.Incremental {
			err = e.aggregator.AggregateIncremental(ctx, structure, aggProgress)
		} else {
			err = e.aggregator.AggregateAll(ctx, structure, opts.Force, aggProgress)
		}
		if err != nil {
			return nil, fmt.Errorf("aggregate sizes: %w", err)
		}
	} else {
		structure.ScanComplete = true
		structure.ScanTimestamp = time.Now().UTC()
	}

	report(persistStart, "persisting")
	e.cache.PutStructure(cache.DefaultStructureName, structure)
	report(scanDone, "done")
	return structure, nil
}

// fetchAll pages through the listing until the token runs out, pacing
// requests with the configured delay. A failure on the first page is
// fatal; there is nothing to scan without it.
func (e *Explorer) fetchAll(ctx context.Context, onProgress ProgressFunc) ([]drive.ItemRecord, error) {
	var records []drive.ItemRecord
	pageToken := ""
	pageCount := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := e.client.ListItems(ctx, drive.ListOptions{
			PageSize:  e.pageSize,
			PageToken: pageToken,
		})
		if err != nil {
			return nil, fmt.Errorf("list items (page %d): %w", pageCount+1, err)
		}
		records = append(records, page.Records...)
		pageCount++

		if onProgress != nil {
			// Total page count is unknown up front; creep toward the
			// band's end without reaching it.
			pct := fetchStart + min(buildStart-fetchStart-1, pageCount)
			onProgress(pct, "fetching")
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
		if e.requestDelay > 0 {
			e.sleep(e.requestDelay)
		}
	}

	logger.Debugf("scan: fetched %d records across %d pages", len(records), pageCount)
	return records, nil
}

// buildStructure converts the wire records and links the hierarchy.
// Trashed records and records without an ID are skipped and counted.
func (e *Explorer) buildStructure(records []drive.ItemRecord) *models.Structure {
	structure := models.NewStructure()
	skipped := 0
	for _, rec := range records {
		if rec.ID == "" || rec.Trashed {
			skipped++
			continue
		}
		structure.AddItem(itemFromRecord(rec))
	}
	structure.ScanErrors = skipped
	if skipped > 0 {
		logger.Warnf("scan: skipped %d unusable records", skipped)
	}
	structure.BuildHierarchy()
	return structure
}

func itemFromRecord(rec drive.ItemRecord) *models.Item {
	return &models.Item{
		ID:           rec.ID,
		Name:         rec.Name,
		Type:         models.TypeFromMime(rec.MimeType),
		MimeType:     rec.MimeType,
		Size:         rec.Size,
		ParentIDs:    rec.Parents,
		CreatedTime:  rec.CreatedTime,
		ModifiedTime: rec.ModifiedTime,
		OwnedByMe:    rec.OwnedByMe,
		Shared:       rec.Shared,
		Starred:      rec.Starred,
		Trashed:      rec.Trashed,
		WebViewLink:  rec.WebViewLink,
	}
}
