// Package cli provides the terminal interface for the eduVPN client
// core. It wires the discovery loader, cache writeback, row projection,
// and authorization together for one-shot command use.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/samermassoud/eduvpn-client/auth"
	"github.com/samermassoud/eduvpn-client/cache"
	"github.com/samermassoud/eduvpn-client/common"
	"github.com/samermassoud/eduvpn-client/config"
	"github.com/samermassoud/eduvpn-client/discovery"
	"github.com/samermassoud/eduvpn-client/message"
	"github.com/samermassoud/eduvpn-client/notify"
	"github.com/samermassoud/eduvpn-client/rows"
)

// CLI represents the command-line interface.
type CLI struct {
	cfg    *config.Config
	loader *discovery.Loader
	store  *cache.Store
	// One gate per feed; generations only order loads of the same feed.
	gates    map[common.DirectoryType]*discovery.GenerationGate
	presence *notify.ServerPresence
	version  string
}

// New creates a CLI instance with the full collaborator chain: SQLite
// cache, embedded bundle, and HTTP fetcher.
func New(cfg *config.Config, version string) (*CLI, error) {
	store, err := cache.OpenDefault()
	if err != nil {
		// A broken cache only removes the cache tier; the bundle and
		// server tiers still work.
		common.LogWarn("cli: discovery cache unavailable: %v", err)
		store = nil
	}

	var bundle common.BundleReader
	if cfg.UseBundledDiscovery {
		bundle = discovery.EmbeddedBundle{}
	}

	var cacheReader common.CacheReader
	if store != nil {
		cacheReader = store
	}

	loader := discovery.NewLoader(discovery.LoaderOptions{
		Cache:  cacheReader,
		Bundle: bundle,
		Remote: discovery.NewHTTPFetcher(cfg.ServerListURL, cfg.OrganizationListURL, cfg.RequestTimeout, version),
	})

	presence := notify.NewServerPresence()
	presence.Subscribe(func(hasServers bool) {
		common.LogDebug("cli: server presence changed: %v", hasServers)
	})

	return &CLI{
		cfg:    cfg,
		loader: loader,
		store:  store,
		gates: map[common.DirectoryType]*discovery.GenerationGate{
			common.DirectoryServers:       {},
			common.DirectoryOrganizations: {},
		},
		presence: presence,
		version:  version,
	}, nil
}

// Close releases the cache store.
func (c *CLI) Close() error {
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}

// LoadDirectory loads both discovery feeds and returns the combined
// directory. One-shot commands have no event loop to deliver background
// server results to, so this waits for them and keeps whichever
// generation the gate accepts, writing server payloads back to the
// cache.
func (c *CLI) LoadDirectory(ctx context.Context) (*discovery.Directory, error) {
	combined := &discovery.Directory{}

	for _, dt := range []common.DirectoryType{common.DirectoryServers, common.DirectoryOrganizations} {
		result, updates, err := c.loader.Load(ctx, dt)
		if err != nil {
			return nil, err
		}
		if c.gates[dt].Accept(result.Generation) {
			combined = combined.Merge(result.Directory)
		}
		if result.Tier == discovery.TierServer {
			c.writeback(ctx, dt, result.Raw)
		}
		if updates != nil {
			if server, ok := <-updates; ok {
				if c.gates[dt].Accept(server.Generation) {
					combined = combined.Merge(server.Directory)
				}
				c.writeback(ctx, dt, server.Raw)
			}
		}
	}

	c.presence.SetHasServers(!combined.Empty())
	return combined, nil
}

// writeback persists a server-tier payload into the cache.
func (c *CLI) writeback(ctx context.Context, dt common.DirectoryType, payload []byte) {
	if c.store == nil {
		return
	}
	if err := c.store.Write(ctx, dt, payload); err != nil {
		common.LogWarn("cli: cache writeback for %s failed: %v", dt, err)
	}
}

// ListServers projects the directory through the optional search query
// and prints the rows as a table.
func (c *CLI) ListServers(ctx context.Context, query string) error {
	dir, err := c.LoadDirectory(ctx)
	if err != nil {
		return err
	}

	projected := rows.Project(dir, query, true)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range projected {
		switch row.Kind {
		case rows.KindSectionHeader:
			fmt.Fprintf(w, "%s\t\n", strings.ToUpper(row.Header.String()))
		case rows.KindInstituteAccessServer:
			fmt.Fprintf(w, "  %s\t%s\n", row.DisplayName, row.BaseURL)
		case rows.KindSecureInternetOrg:
			fmt.Fprintf(w, "  %s\t%s\n", row.DisplayName, row.Org.OrgID)
		case rows.KindServerByURL:
			fmt.Fprintf(w, "  %s\t\n", row.BaseURL)
		case rows.KindNoResults:
			fmt.Fprintf(w, "%s\t\n", row.DisplayName)
		}
	}
	return w.Flush()
}

// ShowMessages reads a system-messages document from a URL, a file, or
// standard input ("-"), decodes it, and prints the active messages
// resolved against the configured locale preferences.
func (c *CLI) ShowMessages(ctx context.Context, source string) error {
	payload, err := readSource(ctx, source, c.cfg.RequestTimeout)
	if err != nil {
		return err
	}

	msgs, err := message.Decode(payload)
	if err != nil {
		return err
	}

	active := msgs.Active(time.Now())
	display := active.DisplayString(c.cfg.PreferredLocales)
	if display == "" {
		fmt.Println("No messages.")
		return nil
	}
	fmt.Println(display)

	if c.cfg.ShowNotifications {
		c.notifyMessages(active)
	}
	return nil
}

// notifyMessages mirrors the active messages to the desktop. Failures
// only cost the notification; the messages were already printed.
func (c *CLI) notifyMessages(msgs *message.SystemMessages) {
	notifier, err := notify.NewDesktopNotifier()
	if err != nil {
		common.LogDebug("cli: desktop notifications unavailable: %v", err)
		return
	}
	defer notifier.Close()

	for i := range msgs.Messages {
		m := &msgs.Messages[i]
		text := m.Localized(c.cfg.PreferredLocales)
		if text == "" {
			continue
		}
		if err := notifier.Notify(m.Category.String(), text); err != nil {
			common.LogWarn("cli: notification failed: %v", err)
			return
		}
	}
}

// Authorize runs one authorization against the given server base URL
// and stores the resulting credential in the system keyring.
func (c *CLI) Authorize(ctx context.Context, baseURL string) error {
	if !strings.HasPrefix(baseURL, "https://") {
		return fmt.Errorf("server address must start with https://: %s", baseURL)
	}

	orch := auth.New(&pasteTransport{out: os.Stdout}, common.GetLogger())
	state, err := orch.StartAuth(ctx, baseURL, "")
	if err != nil {
		return err
	}

	if err := auth.NewTokenStore().Save(state); err != nil {
		common.LogWarn("cli: could not store credential: %v", err)
		fmt.Println("Authorized (credential not persisted).")
		return nil
	}
	fmt.Printf("Authorized against %s.\n", baseURL)
	return nil
}

// pasteTransport is a minimal authorization surface for terminal use:
// it prints the authorize URL for the user to open in a browser and
// reads the issued token back from the terminal.
type pasteTransport struct {
	out io.Writer
}

func (t *pasteTransport) Authorize(ctx context.Context, baseURL, wayfHint, stateNonce string) (*auth.State, error) {
	authorizeURL := strings.TrimSuffix(baseURL, "/") + "/oauth/authorize?state=" + stateNonce
	if wayfHint != "" {
		authorizeURL += "&org_id=" + wayfHint
	}

	fmt.Fprintf(t.out, "Open the following URL in your browser and approve access:\n\n  %s\n\n", authorizeURL)
	fmt.Fprint(t.out, "Paste the issued token: ")

	tokenCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		token, err := readToken()
		if err != nil {
			errCh <- err
			return
		}
		tokenCh <- token
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-errCh:
		return nil, err
	case token := <-tokenCh:
		token = strings.TrimSpace(token)
		if token == "" {
			return nil, fmt.Errorf("empty token")
		}
		return &auth.State{AccessToken: token}, nil
	}
}

// readToken reads the pasted token without echoing it when connected
// to a real terminal.
func readToken() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		data, err := term.ReadPassword(fd)
		fmt.Println()
		return string(data), err
	}
	var token string
	_, err := fmt.Fscanln(os.Stdin, &token)
	return token, err
}

// readSource fetches the payload from a URL or reads it from a file or
// standard input.
func readSource(ctx context.Context, source string, timeout time.Duration) ([]byte, error) {
	if source == "-" {
		return io.ReadAll(os.Stdin)
	}
	if strings.HasPrefix(source, "https://") || strings.HasPrefix(source, "http://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, err
		}
		client := &http.Client{Timeout: timeout}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("server returned %s", resp.Status)
		}
		return io.ReadAll(resp.Body)
	}
	return os.ReadFile(source)
}

// PrintHelp prints the usage summary.
func PrintHelp() {
	fmt.Printf(`%s - discover and authorize eduVPN servers

Usage:
  eduvpn-client [options]

Options:
  -list                 List available servers and organizations
  -search <query>       List entries matching a search query
  -messages <source>    Decode and print system messages from a URL, file, or "-"
  -authorize <url>      Authorize against a server base URL
  -pick                 Interactive server picker
  -verbose              Enable verbose logging
  -version              Show version and exit
  -help                 Show this help message
`, common.AppName)
}
