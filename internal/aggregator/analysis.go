package aggregator

import (
	"sort"

	"github.com/damacus/drivescope/internal/models"
)

// Size bucket boundaries.
const (
	MiB = int64(1024 * 1024)
	GiB = 1024 * MiB
)

// LargestFolders returns the n biggest folders by cumulative size.
func LargestFolders(s *models.Structure, n int) []*models.Item {
	var folders []*models.Item
	for _, item := range s.Items {
		if item.IsFolder() {
			folders = append(folders, item)
		}
	}
	sort.Slice(folders, func(i, j int) bool {
		if folders[i].DisplaySize() != folders[j].DisplaySize() {
			return folders[i].DisplaySize() > folders[j].DisplaySize()
		}
		return folders[i].ID < folders[j].ID
	})
	if n > 0 && len(folders) > n {
		folders = folders[:n]
	}
	return folders
}

// LargestFiles returns the n biggest files by raw size.
func LargestFiles(s *models.Structure, n int) []*models.Item {
	var files []*models.Item
	for _, item := range s.Items {
		if !item.IsFolder() {
			files = append(files, item)
		}
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].Size != files[j].Size {
			return files[i].Size > files[j].Size
		}
		return files[i].ID < files[j].ID
	})
	if n > 0 && len(files) > n {
		files = files[:n]
	}
	return files
}

// EmptyFolders returns fully scanned folders that hold nothing at all,
// sorted by path. Folders whose aggregation never completed are excluded
// rather than misreported as empty.
func EmptyFolders(s *models.Structure) []*models.Item {
	var empty []*models.Item
	for _, item := range s.Items {
		if item.IsFolder() && item.ScanComplete && item.FileCount == 0 && item.FolderCount == 0 {
			empty = append(empty, item)
		}
	}
	sort.Slice(empty, func(i, j int) bool { return empty[i].Path < empty[j].Path })
	return empty
}

// Distribution is a histogram of file sizes with percentile markers.
type Distribution struct {
	Tiny   int `json:"tiny"`   // < 1 MiB
	Small  int `json:"small"`  // < 10 MiB
	Medium int `json:"medium"` // < 100 MiB
	Large  int `json:"large"`  // < 1 GiB
	Huge   int `json:"huge"`   // >= 1 GiB

	TotalFiles int   `json:"total_files"`
	Median     int64 `json:"median"`
	P90        int64 `json:"p90"`
	P95        int64 `json:"p95"`
}

// SizeDistribution buckets every file by size. Percentiles index into the
// descending size list: P90 is the size that 90% of files are at least as
// large as.
func SizeDistribution(s *models.Structure) Distribution {
	var sizes []int64
	var d Distribution
	for _, item := range s.Items {
		if item.IsFolder() {
			continue
		}
		sizes = append(sizes, item.Size)
		switch {
		case item.Size < 1*MiB:
			d.Tiny++
		case item.Size < 10*MiB:
			d.Small++
		case item.Size < 100*MiB:
			d.Medium++
		case item.Size < 1*GiB:
			d.Large++
		default:
			d.Huge++
		}
	}
	d.TotalFiles = len(sizes)
	if len(sizes) == 0 {
		return d
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] > sizes[j] })
	d.Median = percentile(sizes, 0.50)
	d.P90 = percentile(sizes, 0.90)
	d.P95 = percentile(sizes, 0.95)
	return d
}

func percentile(descending []int64, p float64) int64 {
	idx := int(float64(len(descending)) * p)
	if idx >= len(descending) {
		idx = len(descending) - 1
	}
	return descending[idx]
}

// WorkspaceStats is the census of Google Workspace documents.
type WorkspaceStats struct {
	TotalDocs       int                          `json:"total_docs"`
	ByType          map[models.ItemType]int      `json:"by_type"`
	Examples        map[models.ItemType][]string `json:"examples"`
	FoldersWithDocs int                          `json:"folders_with_docs"`
	PercentOfFiles  float64                      `json:"percent_of_files"`
	MostCommonType  models.ItemType              `json:"most_common_type,omitempty"`
}

const censusExampleLimit = 5

// WorkspaceCensus counts Workspace documents per subtype. Workspace files
// report zero raw size, so they are invisible to size analysis and worth
// surfacing separately.
func WorkspaceCensus(s *models.Structure) WorkspaceStats {
	stats := WorkspaceStats{
		ByType:   make(map[models.ItemType]int),
		Examples: make(map[models.ItemType][]string),
	}
	foldersWithDocs := make(map[string]bool)
	totalFiles := 0

	for _, item := range s.Items {
		if item.IsFolder() {
			continue
		}
		totalFiles++
		if !item.IsWorkspaceDoc() {
			continue
		}
		stats.TotalDocs++
		stats.ByType[item.Type]++
		if len(stats.Examples[item.Type]) < censusExampleLimit {
			stats.Examples[item.Type] = append(stats.Examples[item.Type], item.Name)
		}
		for _, pid := range item.ParentIDs {
			if parent := s.Item(pid); parent != nil && parent.IsFolder() {
				foldersWithDocs[parent.ID] = true
				break
			}
		}
	}

	stats.FoldersWithDocs = len(foldersWithDocs)
	if totalFiles > 0 {
		stats.PercentOfFiles = float64(stats.TotalDocs) / float64(totalFiles) * 100
	}

	best := 0
	for t, n := range stats.ByType {
		if n > best || (n == best && (stats.MostCommonType == "" || t < stats.MostCommonType)) {
			best = n
			stats.MostCommonType = t
		}
	}
	return stats
}

// TypeCount summarizes one semantic file type.
type TypeCount struct {
	Type       models.ItemType `json:"type"`
	Count      int             `json:"count"`
	TotalBytes int64           `json:"total_bytes"`
}

// FileTypeCensus groups files by semantic type, largest byte total first.
func FileTypeCensus(s *models.Structure) []TypeCount {
	byType := make(map[models.ItemType]*TypeCount)
	for _, item := range s.Items {
		if item.IsFolder() {
			continue
		}
		tc, ok := byType[item.Type]
		if !ok {
			tc = &TypeCount{Type: item.Type}
			byType[item.Type] = tc
		}
		tc.Count++
		tc.TotalBytes += item.Size
	}

	out := make([]TypeCount, 0, len(byType))
	for _, tc := range byType {
		out = append(out, *tc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalBytes != out[j].TotalBytes {
			return out[i].TotalBytes > out[j].TotalBytes
		}
		return out[i].Type < out[j].Type
	})
	return out
}
