// campusctl is a small terminal client for the CampusLink backend:
// register, login, whoami, logout. It keeps the session token in the
// user config directory, the same way the web client keeps it in
// localStorage.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/campuslink/campuslink-be/internal/session"
)

const defaultServer = "http://localhost:8080"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	tokenPath, err := session.DefaultTokenPath()
	if err != nil {
		fatal(err)
	}
	manager := session.NewManager(serverURL(), session.NewFileTokenStore(tokenPath), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "register":
		err = runRegister(ctx, manager)
	case "login":
		err = runLogin(ctx, manager)
	case "whoami":
		err = runWhoami(ctx, manager)
	case "logout":
		err = runLogout(ctx, manager)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

func runRegister(ctx context.Context, manager *session.Manager) error {
	name, err := prompt("Display name")
	if err != nil {
		return err
	}
	email, err := prompt("Email")
	if err != nil {
		return err
	}
	password, err := promptPassword("Password")
	if err != nil {
		return err
	}

	user, err := manager.Register(ctx, name, email, password, "")
	if err != nil {
		return err
	}
	fmt.Printf("registered and logged in as %s <%s> (id %d)\n", user.Name, user.Email, user.ID)
	return nil
}

func runLogin(ctx context.Context, manager *session.Manager) error {
	email, err := prompt("Email")
	if err != nil {
		return err
	}
	password, err := promptPassword("Password")
	if err != nil {
		return err
	}

	user, err := manager.Login(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s <%s>\n", user.Name, user.Email)
	return nil
}

func runWhoami(ctx context.Context, manager *session.Manager) error {
	user, ok, err := manager.ResolveCurrentUser(ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("not logged in")
		return nil
	}
	fmt.Printf("%s <%s> (id %d)\n", user.Name, user.Email, user.ID)
	return nil
}

func runLogout(ctx context.Context, manager *session.Manager) error {
	if err := manager.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}

func prompt(label string) (string, error) {
	fmt.Printf("%s: ", label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(label string) (string, error) {
	fmt.Printf("%s: ", label)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(password), nil
}

func serverURL() string {
	if url := strings.TrimSpace(os.Getenv("CAMPUSLINK_SERVER")); url != "" {
		return strings.TrimRight(url, "/")
	}
	return defaultServer
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: campusctl <register|login|whoami|logout>")
	fmt.Fprintln(os.Stderr, "server URL is taken from CAMPUSLINK_SERVER (default "+defaultServer+")")
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
