package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"git.home.luguber.info/inful/scenetrack/internal/segment"
)

// ScenesCmd implements the 'scenes' command.
type ScenesCmd struct {
	Manuscript string `arg:"" optional:"" help:"Manuscript path (overrides config)"`
	Format     string `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`
}

type sceneListing struct {
	ID       string `json:"id"`
	ParentID string `json:"parentId,omitempty"`
	Title    string `json:"title,omitempty"`
	Level    int    `json:"level"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
}

func (s *ScenesCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root, s.Manuscript)
	if err != nil {
		return err
	}

	content, err := readManuscript(cfg.Manuscript)
	if err != nil {
		return err
	}

	scenes, err := segment.Segment(content)
	if err != nil {
		return err
	}

	if s.Format == "json" {
		listings := make([]sceneListing, 0, len(scenes))
		for _, sc := range scenes {
			listings = append(listings, sceneListing{
				ID:       sc.ID,
				ParentID: sc.ParentID,
				Title:    sc.Title,
				Level:    sc.Level,
				Start:    sc.Start,
				End:      sc.End,
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(listings)
	}

	for _, sc := range scenes {
		indent := strings.Repeat("  ", max(sc.Level-1, 0))
		title := sc.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s%-24s %s [%d:%d]\n", indent, sc.ID, title, sc.Start, sc.End)
	}
	return nil
}
