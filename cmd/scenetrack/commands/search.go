package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"git.home.luguber.info/inful/scenetrack/internal/search"
	"git.home.luguber.info/inful/scenetrack/internal/segment"
)

// SearchCmd implements the 'search' command.
type SearchCmd struct {
	Query      string `arg:"" help:"Words to search scenes for"`
	Manuscript string `short:"m" help:"Manuscript path (overrides config)"`
	Format     string `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`
	Limit      int    `short:"n" default:"10" help:"Maximum number of results (0 for all)"`
}

func (s *SearchCmd) Run(_ *Global, root *CLI) error {
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

	results := search.Query(scenes, s.Query, s.Limit)

	if s.Format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for _, r := range results {
		title := r.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%-24s %s [%d] %.2f\n  %s\n", r.SceneID, title, r.Start, r.Score, r.Snippet)
	}
	return nil
}
