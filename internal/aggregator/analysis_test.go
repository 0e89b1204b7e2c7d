package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damacus/drivescope/internal/models"
)

func TestLargestFoldersAndFiles(t *testing.T) {
	root := folder("root", "My Drive")
	big := folder("big", "Big", "root")
	big.SetCalculatedSize(5000)
	small := folder("small", "Small", "root")
	small.SetCalculatedSize(10)
	s := buildStructure(
		root, big, small,
		file("f1", "huge.iso", 4000, "big"),
		file("f2", "note.txt", 10, "small"),
	)
	root.SetCalculatedSize(5010)

	folders := LargestFolders(s, 2)
	require.Len(t, folders, 2)
	assert.Equal(t, "root", folders[0].ID)
	assert.Equal(t, "big", folders[1].ID)

	files := LargestFiles(s, 1)
	require.Len(t, files, 1)
	assert.Equal(t, "huge.iso", files[0].Name)
}

func TestEmptyFolders(t *testing.T) {
	root := folder("root", "My Drive")
	empty1 := folder("e1", "Empty A", "root")
	empty2 := folder("e2", "Empty B", "root")
	unscanned := folder("u1", "Not Scanned Yet", "root")
	s := buildStructure(root, empty1, empty2, unscanned, file("f1", "a.bin", 1, "root"))
	for _, f := range []*models.Item{root, empty1, empty2} {
		f.ScanComplete = true
	}
	root.FileCount = 1
	root.FolderCount = 3

	got := EmptyFolders(s)
	require.Len(t, got, 2, "unscanned folders are not reported as empty")
	assert.Equal(t, "Empty A", got[0].Name)
	assert.Equal(t, "Empty B", got[1].Name)
}

func TestSizeDistribution(t *testing.T) {
	s := buildStructure(
		file("a", "a", 512),          // tiny
		file("b", "b", 2*MiB),        // small
		file("c", "c", 50*MiB),       // medium
		file("d", "d", 500*MiB),      // large
		file("e", "e", 2*GiB),        // huge
		file("f", "f", 100),          // tiny
	)

	d := SizeDistribution(s)
	assert.Equal(t, 2, d.Tiny)
	assert.Equal(t, 1, d.Small)
	assert.Equal(t, 1, d.Medium)
	assert.Equal(t, 1, d.Large)
	assert.Equal(t, 1, d.Huge)
	assert.Equal(t, 6, d.TotalFiles)

	// Descending: 2GiB, 500MiB, 50MiB, 2MiB, 512, 100. Median indexes at
	// position 3 of 6.
	assert.Equal(t, 2*MiB, d.Median)
	assert.Equal(t, int64(100), d.P90)
	assert.Equal(t, int64(100), d.P95)
}

func TestSizeDistributionEmpty(t *testing.T) {
	d := SizeDistribution(models.NewStructure())
	assert.Zero(t, d.TotalFiles)
	assert.Zero(t, d.Median)
}

func workspaceDoc(id, name string, t models.ItemType, parents ...string) *models.Item {
	return &models.Item{ID: id, Name: name, Type: t, ParentIDs: parents}
}

func TestWorkspaceCensus(t *testing.T) {
	root := folder("root", "My Drive")
	s := buildStructure(
		root,
		workspaceDoc("d1", "Notes", models.TypeGoogleDoc, "root"),
		workspaceDoc("d2", "Plan", models.TypeGoogleDoc, "root"),
		workspaceDoc("s1", "Budget", models.TypeGoogleSheet, "root"),
		file("f1", "photo.jpg", 100, "root"),
	)

	ws := WorkspaceCensus(s)
	assert.Equal(t, 3, ws.TotalDocs)
	assert.Equal(t, 2, ws.ByType[models.TypeGoogleDoc])
	assert.Equal(t, 1, ws.ByType[models.TypeGoogleSheet])
	assert.Len(t, ws.Examples[models.TypeGoogleDoc], 2)
	assert.Equal(t, 1, ws.FoldersWithDocs)
	assert.InDelta(t, 75.0, ws.PercentOfFiles, 0.01)
	assert.Equal(t, models.TypeGoogleDoc, ws.MostCommonType)
}

func TestFileTypeCensus(t *testing.T) {
	root := folder("root", "My Drive")
	s := buildStructure(
		root,
		file("f1", "a.bin", 300, "root"),
		file("f2", "b.bin", 200, "root"),
		workspaceDoc("d1", "Doc", models.TypeGoogleDoc, "root"),
	)

	got := FileTypeCensus(s)
	require.Len(t, got, 2)
	assert.Equal(t, models.TypeFile, got[0].Type)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, int64(500), got[0].TotalBytes)
	assert.Equal(t, models.TypeGoogleDoc, got[1].Type)
}
