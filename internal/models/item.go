// Package models contains the data structures shared by the cache,
// aggregation engine and explorer.
package models

import (
	"strings"
	"time"
)

// ItemType is the semantic type of a Drive item, derived once from its
// MIME type at construction.
type ItemType string

const (
	TypeFile          ItemType = "file"
	TypeFolder        ItemType = "folder"
	TypeGoogleDoc     ItemType = "google_doc"
	TypeGoogleSheet   ItemType = "google_sheet"
	TypeGoogleSlide   ItemType = "google_slide"
	TypeGoogleForm    ItemType = "google_form"
	TypeGoogleDrawing ItemType = "google_drawing"
	TypeUnknown       ItemType = "unknown"
)

// MimeTypeFolder is the MIME type Google Drive reports for folders.
const MimeTypeFolder = "application/vnd.google-apps.folder"

// TypeFromMime maps a Drive MIME type onto an ItemType. Workspace
// documents (Docs, Sheets, Slides, Forms, Drawings) always report a raw
// size of zero and get their own subtypes so analysis can single them out.
func TypeFromMime(mimeType string) ItemType {
	switch mimeType {
	case MimeTypeFolder:
		return TypeFolder
	case "application/vnd.google-apps.document":
		return TypeGoogleDoc
	case "application/vnd.google-apps.spreadsheet":
		return TypeGoogleSheet
	case "application/vnd.google-apps.presentation":
		return TypeGoogleSlide
	case "application/vnd.google-apps.form":
		return TypeGoogleForm
	case "application/vnd.google-apps.drawing":
		return TypeGoogleDrawing
	}
	if strings.Contains(mimeType, "google-apps") {
		return TypeUnknown
	}
	return TypeFile
}

// Item represents one file or folder in a Drive account.
//
// ParentIDs may list more than one parent; hierarchy building attaches the
// item to the first parent that resolves to a known folder (the primary
// parent), and aggregation only ever traverses primary parent→child edges.
type Item struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Type         ItemType  `json:"type"`
	MimeType     string    `json:"mime_type"`
	Size         int64     `json:"size"`
	ParentIDs    []string  `json:"parent_ids,omitempty"`
	CreatedTime  time.Time `json:"created_time,omitzero"`
	ModifiedTime time.Time `json:"modified_time,omitzero"`
	Path         string    `json:"path,omitempty"`
	OwnedByMe    bool      `json:"owned_by_me"`
	Shared       bool      `json:"shared"`
	Starred      bool      `json:"starred"`
	Trashed      bool      `json:"trashed"`
	WebViewLink  string    `json:"web_view_link,omitempty"`

	// Aggregation results, set by the engine. CalculatedSize stays nil
	// until a scan of this folder completes.
	CalculatedSize *int64    `json:"calculated_size,omitempty"`
	FileCount      int       `json:"file_count"`
	FolderCount    int       `json:"folder_count"`
	LastScanned    time.Time `json:"last_scanned,omitzero"`
	ScanComplete   bool      `json:"scan_complete"`

	// Children holds direct child references within the primary tree.
	// It is rebuilt from ParentIDs by Structure.BuildHierarchy and never
	// serialized; the Structure's ID mapping is the source of truth.
	Children []*Item `json:"-"`
}

// IsFolder reports whether the item is a folder.
func (it *Item) IsFolder() bool {
	return it.Type == TypeFolder
}

// IsWorkspaceDoc reports whether the item is a Google Workspace document
// (always zero raw size, still counted as a file).
func (it *Item) IsWorkspaceDoc() bool {
	switch it.Type {
	case TypeGoogleDoc, TypeGoogleSheet, TypeGoogleSlide, TypeGoogleForm, TypeGoogleDrawing:
		return true
	}
	return false
}

// DisplaySize returns the calculated size for aggregated folders and the
// raw size for everything else.
func (it *Item) DisplaySize() int64 {
	if it.IsFolder() && it.CalculatedSize != nil {
		return *it.CalculatedSize
	}
	return it.Size
}

// HasSize reports whether the item contributes bytes to storage usage.
func (it *Item) HasSize() bool {
	if it.Size > 0 {
		return true
	}
	return it.IsFolder() && it.CalculatedSize != nil && *it.CalculatedSize > 0
}

// AddChild attaches a child to this folder, skipping duplicates, and
// derives the child's path from the parent's.
func (it *Item) AddChild(child *Item) {
	if !it.IsFolder() {
		return
	}
	for _, existing := range it.Children {
		if existing.ID == child.ID {
			return
		}
	}
	it.Children = append(it.Children, child)
	if it.Path != "" {
		child.Path = it.Path + "/" + child.Name
	} else {
		child.Path = child.Name
	}
}

// SetCalculatedSize records an aggregation result on the folder.
func (it *Item) SetCalculatedSize(size int64) {
	it.CalculatedSize = &size
}
