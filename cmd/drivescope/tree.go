package main

import (
	"fmt"

	"github.com/disiqueira/gotree/v3"
	"github.com/spf13/cobra"

	"github.com/damacus/drivescope/internal/explorer"
	"github.com/damacus/drivescope/internal/models"
	"github.com/damacus/drivescope/internal/utils"
)

var treeDepth int

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the folder tree with cumulative sizes",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newComponents(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer c.Close()

		structure, err := c.explorer.ScanCompleteDrive(cmd.Context(), explorer.ScanOptions{
			UseCache:       true,
			CalculateSizes: true,
		}, nil)
		if err != nil {
			return err
		}

		root := gotree.New("Drive")
		for _, top := range structure.RootFolders {
			addFolderNode(root, top, treeDepth)
		}
		for _, f := range structure.RootFiles {
			root.Add(fmt.Sprintf("%s (%s)", f.Name, utils.FormatFileSize(f.Size)))
		}
		fmt.Print(root.Print())
		return nil
	},
}

// addFolderNode renders a folder and its subfolders down to the depth
// limit. Files are summarized as a count to keep the output readable.
func addFolderNode(parent gotree.Tree, folder *models.Item, depth int) {
	node := parent.Add(fmt.Sprintf("%s (%s)", folder.Name, utils.FormatFileSize(folder.DisplaySize())))
	if depth <= 1 {
		return
	}
	files := 0
	for _, child := range folder.Children {
		if child.IsFolder() {
			addFolderNode(node, child, depth-1)
		} else {
			files++
		}
	}
	if files > 0 {
		node.Add(fmt.Sprintf("%d files", files))
	}
}

func init() {
	treeCmd.Flags().IntVar(&treeDepth, "depth", 3, "folder depth to render")
	rootCmd.AddCommand(treeCmd)
}
