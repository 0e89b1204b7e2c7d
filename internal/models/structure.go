package models

import "time"

// Structure is the complete snapshot of one account scan. The Items map is
// the single source of truth; root lists and child lists are views into it.
type Structure struct {
	Items       map[string]*Item `json:"items"`
	RootFolders []*Item          `json:"-"`
	RootFiles   []*Item          `json:"-"`

	TotalFiles    int       `json:"total_files"`
	TotalFolders  int       `json:"total_folders"`
	TotalSize     int64     `json:"total_size"`
	ScanComplete  bool      `json:"scan_complete"`
	ScanTimestamp time.Time `json:"scan_timestamp,omitzero"`
	ScanErrors    int       `json:"scan_errors"`
}

// NewStructure returns an empty snapshot ready to be populated.
func NewStructure() *Structure {
	return &Structure{Items: make(map[string]*Item)}
}

// AddItem registers an item and updates the running counters.
func (s *Structure) AddItem(item *Item) {
	s.Items[item.ID] = item
	if item.IsFolder() {
		s.TotalFolders++
	} else {
		s.TotalFiles++
		s.TotalSize += item.Size
	}
}

// Item looks up an item by ID, returning nil when absent.
func (s *Structure) Item(id string) *Item {
	return s.Items[id]
}

// BuildHierarchy links every item to its primary parent (the first entry
// in ParentIDs that resolves to a known folder) and collects the items
// with no resolved parent as roots. Child lists and paths are rebuilt from
// scratch, so the method is safe to call again after deserialization.
// Size aggregation is a separate pass owned by the engine.
func (s *Structure) BuildHierarchy() {
	s.RootFolders = nil
	s.RootFiles = nil
	for _, item := range s.Items {
		item.Children = nil
	}

	for _, item := range s.Items {
		parent := s.primaryParent(item)
		if parent != nil {
			parent.Children = append(parent.Children, item)
			continue
		}
		item.Path = item.Name
		if item.IsFolder() {
			s.RootFolders = append(s.RootFolders, item)
		} else {
			s.RootFiles = append(s.RootFiles, item)
		}
	}

	// Paths flow down from the roots once all links exist.
	var setPaths func(folder *Item)
	setPaths = func(folder *Item) {
		for _, child := range folder.Children {
			child.Path = folder.Path + "/" + child.Name
			if child.IsFolder() {
				setPaths(child)
			}
		}
	}
	for _, root := range s.RootFolders {
		setPaths(root)
	}
}

// primaryParent returns the first parent ID that resolves to a known
// folder, or nil when the item is a root.
func (s *Structure) primaryParent(item *Item) *Item {
	for _, pid := range item.ParentIDs {
		if parent, ok := s.Items[pid]; ok && parent.IsFolder() {
			return parent
		}
	}
	return nil
}

// Stats summarizes the snapshot for status endpoints and CLI output.
type StructureStats struct {
	TotalItems    int       `json:"total_items"`
	TotalFiles    int       `json:"total_files"`
	TotalFolders  int       `json:"total_folders"`
	TotalSize     int64     `json:"total_size"`
	RootFolders   int       `json:"root_folders"`
	RootFiles     int       `json:"root_files"`
	ScanComplete  bool      `json:"scan_complete"`
	ScanTimestamp time.Time `json:"scan_timestamp,omitzero"`
	ScanErrors    int       `json:"scan_errors"`
}

// Stats returns the snapshot's aggregate counters.
func (s *Structure) Stats() StructureStats {
	return StructureStats{
		TotalItems:    len(s.Items),
		TotalFiles:    s.TotalFiles,
		TotalFolders:  s.TotalFolders,
		TotalSize:     s.TotalSize,
		RootFolders:   len(s.RootFolders),
		RootFiles:     len(s.RootFiles),
		ScanComplete:  s.ScanComplete,
		ScanTimestamp: s.ScanTimestamp,
		ScanErrors:    s.ScanErrors,
	}
}
