// Package cli implements the interactive operator client: a small REPL
// over the identity HTTP API for login, lookups, and privilege changes.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ojudge/identity/internal/common"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

type App struct {
	config   *Config
	api      *Client
	token    string
	userName string
	reader   *bufio.Reader
}

func NewApp(c *Config) *App {
	return &App{
		config: c,
		api:    NewClient(c.ServerEndpointAddr),
		reader: bufio.NewReader(os.Stdin),
	}
}

func (a *App) isLoggedIn() bool {
	return a.token != ""
}

func (a *App) getStatus() string {
	if a.userName == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", a.userName)
}

// identityID pulls the subject id out of the held token without verifying
// the signature. The server already verified it when it was issued; here
// it only routes the whoami lookup.
func (a *App) identityID() (string, error) {
	var claims struct {
		jwt.RegisteredClaims
		IdentityID string `json:"identity_id"`
	}
	if _, _, err := jwt.NewParser().ParseUnverified(a.token, &claims); err != nil {
		return "", err
	}
	return claims.IdentityID, nil
}

func (a *App) login(ctx context.Context) {
	userName, err := GetSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		printlnFn("error:", err)
		return
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		printlnFn("error:", err)
		return
	}
	defer common.WipeByteArray(password)

	token, err := a.api.Login(ctx, userName, string(password))
	if err != nil {
		printlnFn("Login unsuccessful:", err)
		return
	}
	a.token = token
	a.userName = userName
	printlnFn("Login successful")
}

func (a *App) whoami(ctx context.Context) {
	id, err := a.identityID()
	if err != nil {
		printlnFn("error:", err)
		return
	}
	identity, err := a.api.Get(ctx, a.token, id)
	if err != nil {
		printlnFn("error:", err)
		return
	}
	printIdentity(identity)
}

func (a *App) list(ctx context.Context, args []string) {
	page := 1
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			page = n
		}
	}
	items, err := a.api.List(ctx, a.token, "", page)
	if err != nil {
		printlnFn("error:", err)
		return
	}
	for i := range items {
		printIdentity(&items[i])
	}
}

func (a *App) search(ctx context.Context, args []string) {
	if len(args) == 0 {
		printlnFn("Usage: search <keyword>")
		return
	}
	items, err := a.api.List(ctx, a.token, args[0], 1)
	if err != nil {
		printlnFn("error:", err)
		return
	}
	for i := range items {
		printIdentity(&items[i])
	}
}

func (a *App) setPrivilege(ctx context.Context, args []string) {
	if len(args) != 2 {
		printlnFn("Usage: set-privilege <id> <0|1|2|3>")
		return
	}
	priv, err := strconv.Atoi(args[1])
	if err != nil {
		printlnFn("Usage: set-privilege <id> <0|1|2|3>")
		return
	}
	identity, err := a.api.SetPrivilege(ctx, a.token, args[0], priv)
	if err != nil {
		printlnFn("error:", err)
		return
	}
	printlnFn("Privilege updated")
	printIdentity(identity)
}

func (a *App) refresh(ctx context.Context) {
	token, err := a.api.Refresh(ctx, a.token)
	if err != nil {
		printlnFn("error:", err)
		return
	}
	a.token = token
	printlnFn("Token refreshed")
}

func printIdentity(identity *Identity) {
	printlnFn(fmt.Sprintf("%s  %s <%s>  privilege=%d  created=%s",
		identity.ID, identity.Username, identity.Email, identity.Privilege,
		identity.CreatedAt.Format("2006-01-02")))
}

func (a *App) Run(ctx context.Context) {
	printlnFn("identity operator console (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("idcli %s> ", a.getStatus())
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, list [page], search <kw>, set-privilege <id> <n>, refresh, logout, exit")
			} else {
				printlnFn("Available commands: login, exit")
			}
		case "login":
			a.login(ctx)
		case "whoami":
			a.whoami(ctx)
		case "l", "list":
			a.list(ctx, args)
		case "search":
			a.search(ctx, args)
		case "set-privilege":
			a.setPrivilege(ctx, args)
		case "refresh":
			a.refresh(ctx)
		case "logout":
			a.token, a.userName = "", ""
			printlnFn("Logged out")
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
