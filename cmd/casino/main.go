package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build.
var version = "dev"

type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Play     PlayCmd          `cmd:"" help:"Play at the casino table in your terminal"`
	Serve    ServeCmd         `cmd:"" help:"Run the casino WebSocket server"`
	Simulate SimulateCmd      `cmd:"" help:"Simulate games with random players and report statistics"`
	Balance  BalanceCmd       `cmd:"" help:"Show an account's balance"`
	Deposit  DepositCmd       `cmd:"" help:"Credit an account"`
	Games    GamesCmd         `cmd:"" help:"List games and payouts"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("casino"),
		kong.Description("Casino mini-games played over chat"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
