// Package cli routes subcommands and wires the session store, the API
// client and the views together.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"taskdeck/internal/api"
	"taskdeck/internal/auth"
	"taskdeck/internal/chat"
	"taskdeck/internal/config"
	"taskdeck/internal/model"
	"taskdeck/internal/tasks"
	"taskdeck/internal/ui"
)

// Options tune behavior from root flags.
type Options struct {
	Group     bool   // plain listing grouped by pending/done
	Plain     bool   // force the non-interactive listing
	ConfigDir string // override the config directory
}

// app bundles everything a subcommand needs.
type app struct {
	cfg    *config.Config
	store  *auth.Store
	client *api.Client
	log    *log.Logger
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	if len(args) == 0 {
		PrintHelp()
		return 2
	}
	cmd, a := args[0], args[1:]

	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		PrintHelp()
		return 0
	}

	ap, code := newApp(opt)
	if code != 0 {
		return code
	}

	switch cmd {
	case "signup":
		return ap.doSignup()

	case "login":
		return ap.doLogin()

	case "logout":
		return ap.doLogout()

	case "whoami":
		return ap.doWhoAmI()

	case "status":
		return ap.doStatus()

	case "ls":
		if code := ap.ensureAuth(); code != 0 {
			return code
		}
		return ap.doList(opt)

	case "add":
		if len(a) == 0 {
			ui.Fail("usage: taskdeck add <title...>")
			return 2
		}
		if code := ap.ensureAuth(); code != 0 {
			return code
		}
		return ap.doAdd(strings.Join(a, " "))

	case "done":
		if len(a) != 1 {
			ui.Fail("usage: taskdeck done <index>")
			return 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			ui.Fail("done: not a number: " + a[0])
			return 2
		}
		if code := ap.ensureAuth(); code != 0 {
			return code
		}
		return ap.doToggle(n)

	case "rm":
		if len(a) != 1 {
			ui.Fail("usage: taskdeck rm <index>")
			return 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			ui.Fail("rm: not a number: " + a[0])
			return 2
		}
		if code := ap.ensureAuth(); code != 0 {
			return code
		}
		return ap.doRemove(n)

	case "chat":
		if code := ap.ensureAuth(); code != 0 {
			return code
		}
		return ap.doChat()
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(os.Stderr)
	PrintHelp()
	return 2
}

// PrintHelp writes the usage screen.
func PrintHelp() {
	fmt.Printf(`taskdeck - a terminal client for your todo server

Usage:
  taskdeck <subcommand> [args]

Subcommands:
  signup             Create an account
  login              Sign in and store the session
  logout             Forget the stored session
  whoami             Show the signed-in user
  status             Show session and server info
  ls                 Task list (interactive TUI; --plain for text)
  add <title...>     Add a task (title can be multiple words)
  done <index>       Toggle done for task at 1-based index
  rm <index>         Remove task at 1-based index
  chat               Talk to the todo assistant

Examples:
  taskdeck add "Buy milk"
  taskdeck ls
  taskdeck chat
`)
}

func newApp(opt Options) (*app, int) {
	cfg, err := config.Load(opt.ConfigDir)
	if err != nil {
		ui.Fail("config: " + err.Error())
		return nil, 1
	}
	if err := cfg.EnsureDir(); err != nil {
		ui.Fail("config dir: " + err.Error())
		return nil, 1
	}

	logger := log.New(io.Discard, "", 0)
	if cfg.LogFile != "" {
		path := cfg.LogFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.Dir, path)
		}
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600); err == nil {
			logger = log.New(f, "taskdeck ", log.LstdFlags)
		}
	}

	store := auth.NewStore(cfg.Dir)
	if err := store.Restore(); err != nil {
		ui.Fail("restore session: " + err.Error())
		return nil, 1
	}

	return &app{
		cfg:    cfg,
		store:  store,
		client: api.NewClient(cfg.APIURL, store, logger),
		log:    logger,
	}, 0
}

// ensureAuth gates the commands that need a live credential.
func (ap *app) ensureAuth() int {
	if !ap.store.Authenticated() {
		ui.Fail("not logged in")
		ui.Hint("Run: taskdeck login (or set " + auth.EnvToken + " and " + auth.EnvEmail + ")")
		return 2
	}
	return 0
}

func (ap *app) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// ---------------------------------------------------
// Session subcommands
// ---------------------------------------------------

func (ap *app) doSignup() int {
	email, err := ui.Prompt("Email")
	if err != nil || email == "" {
		ui.Fail("signup cancelled")
		return 1
	}
	password, err := ui.PromptSecret("Password")
	if err != nil || password == "" {
		ui.Fail("signup cancelled")
		return 1
	}

	ctx, cancel := ap.ctx()
	defer cancel()
	if err := ap.client.SignUp(ctx, email, password); err != nil {
		ui.Fail("signup: " + err.Error())
		return 1
	}
	ui.OK("account created")
	ui.Hint("Now run: taskdeck login")
	return 0
}

func (ap *app) doLogin() int {
	email, err := ui.Prompt("Email")
	if err != nil || email == "" {
		ui.Fail("login cancelled")
		return 1
	}
	password, err := ui.PromptSecret("Password")
	if err != nil || password == "" {
		ui.Fail("login cancelled")
		return 1
	}

	ctx, cancel := ap.ctx()
	defer cancel()
	token, err := ap.client.SignIn(ctx, email, password)
	if err != nil {
		ui.Fail("login: " + err.Error())
		return 1
	}
	if err := ap.store.Login(token, email); err != nil {
		ui.Fail("save session: " + err.Error())
		return 1
	}
	ui.OK("logged in as " + email)
	return 0
}

func (ap *app) doLogout() int {
	if ap.store.Source() == auth.SourceEnv {
		ui.OK("session comes from " + auth.EnvToken + " (nothing stored to delete)")
		return 0
	}
	if err := ap.store.Logout(); err != nil {
		ui.Fail("logout: " + err.Error())
		return 1
	}
	ui.OK("logged out")
	return 0
}

func (ap *app) doWhoAmI() int {
	id, ok := ap.store.Identity()
	if !ok {
		ui.Fail("not logged in. Run: taskdeck login")
		return 2
	}
	fmt.Println(id.Email)
	ui.Hint("source: " + ap.store.Source())
	return 0
}

func (ap *app) doStatus() int {
	fmt.Println("server:", ap.cfg.APIURL)
	if id, ok := ap.store.Identity(); ok {
		fmt.Println("logged in as:", id.Email)
		fmt.Println("source:", ap.store.Source())
	} else {
		fmt.Println("not logged in")
	}
	return 0
}

// ---------------------------------------------------
// Task subcommands (remote-backed)
// ---------------------------------------------------

func (ap *app) doList(opt Options) int {
	list := tasks.NewList(ap.client)

	if opt.Plain || !stdoutIsTTY() {
		ctx, cancel := ap.ctx()
		defer cancel()
		if err := list.Refresh(ctx); err != nil {
			ui.Fail("load: " + err.Error())
			return 1
		}
		printPlain(list.Snapshot(), opt.Group)
		return 0
	}

	if err := ui.RunTasks(list); err != nil {
		ui.Fail("tui: " + err.Error())
		return 1
	}
	return 0
}

func (ap *app) doAdd(title string) int {
	list := tasks.NewList(ap.client)
	ctx, cancel := ap.ctx()
	defer cancel()
	if _, err := list.Add(ctx, title); err != nil {
		if errors.Is(err, tasks.ErrEmptyTitle) {
			ui.Fail("add: empty title")
			return 2
		}
		ui.Fail("add: " + err.Error())
		return 1
	}
	ui.OK("added")
	return 0
}

func (ap *app) doToggle(userIndex int) int {
	list, t, code := ap.taskAt(userIndex)
	if code != 0 {
		return code
	}
	ctx, cancel := ap.ctx()
	defer cancel()
	if err := list.Toggle(ctx, t.ID); err != nil {
		ui.Fail("done: " + err.Error())
		return 1
	}
	ui.OK("toggled")
	return 0
}

func (ap *app) doRemove(userIndex int) int {
	list, t, code := ap.taskAt(userIndex)
	if code != 0 {
		return code
	}
	ctx, cancel := ap.ctx()
	defer cancel()
	if err := list.Delete(ctx, t.ID); err != nil {
		ui.Fail("rm: " + err.Error())
		return 1
	}
	ui.OK("removed")
	return 0
}

// taskAt fetches the current list and resolves a 1-based index.
func (ap *app) taskAt(userIndex int) (*tasks.List, model.Task, int) {
	list := tasks.NewList(ap.client)
	ctx, cancel := ap.ctx()
	defer cancel()
	if err := list.Refresh(ctx); err != nil {
		ui.Fail("load: " + err.Error())
		return nil, model.Task{}, 1
	}
	snap := list.Snapshot()
	if userIndex < 1 || userIndex > len(snap) {
		ui.Fail(fmt.Sprintf("index out of range: have %d, got %d", len(snap), userIndex))
		ui.Hint("Hint: run `taskdeck ls` to see valid indexes")
		return nil, model.Task{}, 2
	}
	return list, snap[userIndex-1], 0
}

func (ap *app) doChat() int {
	id, _ := ap.store.Identity()
	session := chat.NewSession(ap.client, id.Email, ap.log)
	if err := ui.RunChat(session); err != nil {
		ui.Fail("chat: " + err.Error())
		return 1
	}
	return 0
}
