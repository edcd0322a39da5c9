package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	RegisterGoogle(ctx context.Context) error
	Login(ctx context.Context) error
	LoginGoogle(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Users(ctx context.Context, args []string) error
	Avatar(ctx context.Context, args []string) error
	AvatarURL(ctx context.Context) error
}

// runREPL reads commands line by line from reader and dispatches them to a
// until EOF, "exit" or "quit". Commands that need a session are refused
// while logged out. Command errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("authgate%s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, users [page] [size], avatar <file>, avatar-url, logout, exit")
			} else {
				printlnFn("Available commands: register, register-google, login, login-google, exit")
			}

		case "register":
			cmdErr = a.Register(ctx)
		case "register-google":
			cmdErr = a.RegisterGoogle(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "login-google":
			cmdErr = a.LoginGoogle(ctx)

		case "whoami", "logout", "users", "avatar", "avatar-url":
			if !a.isLoggedIn() {
				printlnFn("Please login first")
				continue
			}
			switch cmd {
			case "whoami":
				cmdErr = a.WhoAmI(ctx)
			case "logout":
				cmdErr = a.Logout(ctx)
			case "users":
				cmdErr = a.Users(ctx, args)
			case "avatar":
				cmdErr = a.Avatar(ctx, args)
			case "avatar-url":
				cmdErr = a.AvatarURL(ctx)
			}

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("error:", cmdErr)
		}
	}
}
