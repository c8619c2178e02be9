package main

import (
	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/scenetrack/cmd/scenetrack/commands"
	"git.home.luguber.info/inful/scenetrack/internal/version"
)

func main() {
	// Load .env if present; process env wins over file values.
	_ = godotenv.Load()

	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("scenetrack"),
		kong.Description("Track scene positions across manuscript revisions."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	err := ctx.Run(&commands.Global{})
	ctx.FatalIfErrorf(err)
}
