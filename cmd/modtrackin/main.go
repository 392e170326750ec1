package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/modtrackin/modtrackin/internal/cli"
	"github.com/modtrackin/modtrackin/internal/config"
	"github.com/modtrackin/modtrackin/internal/constants"
	"github.com/modtrackin/modtrackin/internal/logger"
	"github.com/modtrackin/modtrackin/internal/storage"
)

var CLI struct {
	Version   kong.VersionFlag
	Store     string `help:"Store location: SQLite path, or postgres://, redis://, mongodb:// URL, or memory:. Falls back to MODTRACKIN_STORE, the OS keyring, then ~/.config/modtrackin/modtrackin.db. PostgreSQL passwords must NOT be embedded here; use 'config set-store' instead."`
	Debug     bool   `help:"Log debug output to stderr." env:"MODTRACKIN_DEBUG"`
	ConfigDir string `help:"Directory for logs, backups and the default store." default:"~/.config/modtrackin" type:"path"`

	Register  cli.RegisterCmd  `cmd:"" help:"Create an account and sign in."`
	Login     cli.LoginCmd     `cmd:"" help:"Sign in."`
	Logout    cli.LogoutCmd    `cmd:"" help:"Sign out."`
	Whoami    cli.WhoamiCmd    `cmd:"" help:"Show the signed-in user."`
	Home      cli.HomeCmd      `cmd:"" help:"Summary of today." default:"1"`
	Emotion   cli.EmotionCmd   `cmd:"" help:"Record and review daily emotions."`
	Task      cli.TaskCmd      `cmd:"" help:"Manage tasks."`
	Calendar  cli.CalendarCmd  `cmd:"" help:"Show tasks by due date."`
	Note      cli.NoteCmd      `cmd:"" help:"Manage notes."`
	Habit     cli.HabitCmd     `cmd:"" help:"Manage habits and log progress."`
	Sleep     cli.SleepCmd     `cmd:"" help:"Track sleep."`
	Watch     cli.WatchCmd     `cmd:"" help:"Follow a list live."`
	Reminders cli.RemindersCmd `cmd:"" help:"Run the mood and task reminder scheduler."`
	Backup    cli.BackupCmd    `cmd:"" help:"Manage backups."`
	Config    cli.ConfigCmd    `cmd:"" help:"Configure the store."`
	Doctor    cli.DoctorCmd    `cmd:"" help:"Run health checks and diagnostics."`
	Validate  cli.ValidateCmd  `cmd:"" help:"Check stored records for invalid values."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Mood, habit, task, note and sleep tracker"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	configDir, err := config.ConfigDir(CLI.ConfigDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(logger.Config{Debug: CLI.Debug, ConfigDir: configDir}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialise logging: %v\n", err)
	}

	store, err := config.ResolveStore(CLI.Store, configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("store resolved", "target", storage.Describe(store.DSN), "source", store.Source)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var appCtx *cli.Context
	if strings.HasPrefix(ctx.Command(), "config ") {
		appCtx = &cli.Context{Ctx: runCtx, ConfigDir: configDir, Store: store, Out: os.Stdout}
	} else {
		docs, err := storage.Open(runCtx, store.DSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		appCtx = cli.NewContext(runCtx, configDir, store, docs)
	}

	err = ctx.Run(appCtx)
	if cerr := appCtx.Close(); cerr != nil {
		logger.Warn("failed to close store", "error", cerr)
	}
	if err != nil {
		logger.Error("command failed", "command", ctx.Command(), "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
