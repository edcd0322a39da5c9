// Package cli provides the interactive authgate command-line client.
//
// It wires configuration, the HTTP API client and an interactive REPL.
//
//	Not logged in: register, register-google, login, login-google, help, exit
//	Logged in:     whoami, users [page] [size], avatar <file>, avatar-url,
//	               logout, help, exit
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
