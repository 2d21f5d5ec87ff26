// Package main provides reelctl, a terminal client for a ReelVault server.
//
// Usage:
//
//	reelctl signup -email ana@example.com -name Ana
//	reelctl login -email ana@example.com
//	reelctl add -url https://www.instagram.com/reel/ABC123/ -title "Pasta night" -collection Recipes -tags pasta,dinner
//	reelctl list -q ramen -sort tag
//	reelctl rm clip_abc123
//	reelctl watch
//
// The server address comes from REELVAULT_URL (default http://localhost:8080).
// Session state lives under ~/.reelvault/.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/reelvault/reelvault-server/internal/client"
)

func main() {
	log.SetFlags(0)

	flag.Usage = printUsage
	flag.Parse()
	if flag.NArg() == 0 {
		printUsage()
		os.Exit(2)
	}

	app, err := newApp()
	if err != nil {
		log.Fatalf("reelctl: %v", err)
	}
	defer app.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	command := flag.Arg(0)
	args := flag.Args()[1:]

	if err := app.run(ctx, command, args); err != nil {
		log.Fatalf("reelctl: %v", err)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: reelctl <command> [flags]

Commands:
  signup   create an account and sign in
  login    sign in with an existing account
  logout   revoke the current session
  add      save a clip
  list     print saved clips
  rm       delete a clip by ID
  watch    follow live changes from other devices

Environment:
  REELVAULT_URL  server address (default http://localhost:8080)`)
}

type app struct {
	vault   *client.Vault
	session *client.Controller
	cache   *client.Cache
}

func newApp() (*app, error) {
	baseURL := os.Getenv("REELVAULT_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	stateDir := filepath.Join(home, ".reelvault")

	gateway, err := client.NewGateway(client.GatewayOptions{BaseURL: baseURL})
	if err != nil {
		return nil, err
	}

	cache, err := client.OpenCache(filepath.Join(stateDir, "cache.db"))
	if err != nil {
		return nil, fmt.Errorf("open offline cache: %w", err)
	}

	store := client.NewSyncStore()
	creds := client.NewFileCredentialsStore(filepath.Join(stateDir, "credentials.json"))
	session := client.NewController(gateway, store, creds, nil)

	vault, err := client.NewVault(client.VaultOptions{
		Gateway: gateway,
		Store:   store,
		Session: session,
		Cache:   cache,
	})
	if err != nil {
		cache.Close()
		return nil, err
	}

	return &app{vault: vault, session: session, cache: cache}, nil
}

func (a *app) close() {
	_ = a.cache.Close()
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "signup":
		return a.signup(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.logout(ctx)
	case "add":
		return a.add(ctx, args)
	case "list":
		return a.list(ctx, args)
	case "rm":
		return a.remove(ctx, args)
	case "watch":
		return a.watch(ctx)
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// ensureSession resumes the persisted session for commands that need auth.
func (a *app) ensureSession(ctx context.Context) error {
	ok, err := a.session.Restore(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("not signed in, run: reelctl login")
	}
	return nil
}

func (a *app) signup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	email := fs.String("email", "", "account email (required)")
	name := fs.String("name", "", "display name")
	_ = fs.Parse(args)

	if *email == "" {
		return fmt.Errorf("-email is required")
	}
	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}

	if err := a.session.SignUp(ctx, *email, password, *name); err != nil {
		return err
	}
	fmt.Printf("Signed up as %s\n", a.session.Current().Email)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email (required)")
	_ = fs.Parse(args)

	if *email == "" {
		return fmt.Errorf("-email is required")
	}
	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}

	if err := a.session.SignIn(ctx, *email, password); err != nil {
		return err
	}
	fmt.Printf("Signed in as %s\n", a.session.Current().Email)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	if err := a.session.SignOut(ctx); err != nil {
		return err
	}
	fmt.Println("Signed out")
	return nil
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	url := fs.String("url", "", "clip URL (required)")
	title := fs.String("title", "", "display title (fetched from the page when empty)")
	collection := fs.String("collection", "", "collection name")
	tags := fs.String("tags", "", "comma-separated tags")
	_ = fs.Parse(args)

	if *url == "" {
		return fmt.Errorf("-url is required")
	}
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	if _, err := a.vault.Sync(ctx); err != nil {
		return err
	}

	saved, err := a.vault.SaveClip(ctx, client.SaveClipRequest{
		URL:        *url,
		Title:      *title,
		Collection: *collection,
		Tags:       splitTags(*tags),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Saved %s\n", saved.ID)
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	query := fs.String("q", "", "filter by title or tag substring")
	sortKey := fs.String("sort", client.SortByDate, "sort order: date, tag, or title")
	_ = fs.Parse(args)

	if err := a.ensureSession(ctx); err != nil {
		return err
	}

	fromCache, err := a.vault.Sync(ctx)
	if err != nil {
		return err
	}
	if fromCache {
		fmt.Fprintln(os.Stderr, "(server unreachable, showing cached clips)")
	}

	views := a.vault.List(*query, *sortKey)
	if len(views) == 0 {
		fmt.Println("No clips")
		return nil
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	for _, clip := range views {
		tags := "-"
		if len(clip.Tags) > 0 {
			tags = strings.Join(clip.Tags, ",")
		}
		fmt.Fprintf(w, "%s  %s  %-12s  %-24s  %s\n",
			clip.ID, clip.CreatedAt.Format("2006-01-02"), clip.Collection, tags, clip.Title)
	}
	return nil
}

func (a *app) remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: reelctl rm <clip-id>")
	}
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	if err := a.vault.DeleteClip(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", args[0])
	return nil
}

func (a *app) watch(ctx context.Context) error {
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	if _, err := a.vault.Sync(ctx); err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "Watching for changes, Ctrl-C to stop")
	err := a.vault.Watch(ctx, func(event client.RemoteEvent) {
		switch event.Type {
		case client.EventClipCreated:
			fmt.Printf("+ %s  %s\n", event.Clip.ID, event.Clip.Title)
		case client.EventClipDeleted:
			fmt.Printf("- %s\n", event.ClipID)
		case client.EventCollectionCreated:
			fmt.Printf("* new collection %q\n", event.Collection.Name)
		case client.EventTagCreated:
			fmt.Printf("* new tag %q\n", event.Tag.Name)
		}
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		data, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(data), nil
	}

	// Piped input, e.g. in scripts.
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
