package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with
// a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a
// lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Upload(ctx context.Context, path string) error
	Last(ctx context.Context) error
	Csv(ctx context.Context, path string) error
	Download(ctx context.Context, name, path string) error
	Ping(ctx context.Context) error
}

func (a *App) getStatus() string {
	if a.userName != "" {
		return fmt.Sprintf("(%s)", a.userName)
	}
	return ""
}

func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to Content Vault CLI (type 'help' for commands)")
	_ = a.Ping(ctx)

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

// runREPL reads a line, parses the first token as the command, and
// dispatches to methods on 'a'. The loop exits on scanner EOF or when the
// user types "exit" or "quit". Errors returned by command handlers are
// ignored here; handlers print their own.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("cv %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: upload <path>, last, csv [path], download <name> [path], ping, exit")
			} else {
				printlnFn("Available commands: register, login, ping, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "upload":
			if len(args) == 0 {
				printlnFn("Usage: upload <path>")
				continue
			}
			_ = a.Upload(ctx, args[0])

		case "last":
			_ = a.Last(ctx)

		case "csv":
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			_ = a.Csv(ctx, path)

		case "download":
			if len(args) == 0 {
				printlnFn("Usage: download <name> [path]")
				continue
			}
			path := ""
			if len(args) > 1 {
				path = args[1]
			}
			_ = a.Download(ctx, args[0], path)

		case "ping":
			_ = a.Ping(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
