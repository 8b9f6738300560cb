package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/atinyakov/mycraft/internal/client/session"
	"github.com/atinyakov/mycraft/internal/client/storage"
	"github.com/atinyakov/mycraft/internal/models"
	"github.com/atinyakov/mycraft/internal/testutil/fakeapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	api       *fakeapi.Server
	tokenPath string
}

type result struct {
	out    string
	errOut string
	err    error
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := fakeapi.New().Start()
	t.Cleanup(srv.Close)
	return &harness{api: srv, tokenPath: filepath.Join(t.TempDir(), "token.json")}
}

// run executes one command line as a separate process would, sharing only
// the token file.
func (h *harness) run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	app := NewApp(strings.NewReader(stdin), &out, &errOut)
	app.getenv = func(string) string { return "" }
	app.dotenvs = []string{filepath.Join(t.TempDir(), ".env")}

	root := app.RootCommand(Build{Version: "1.2.3", Date: "2025-06-01"})
	root.SetArgs(append([]string{
		"--api-url", h.api.URL(),
		"--token-path", h.tokenPath,
		"--log-level", "error",
	}, args...))
	err := root.ExecuteContext(context.Background())
	app.Close()
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

func (h *harness) login(t *testing.T, username, password string) {
	t.Helper()
	res := h.run(t, "", "login", "-u", username, "-p", password)
	require.NoError(t, res.err)
}

func TestRootCommand_Version(t *testing.T) {
	h := newHarness(t)
	res := h.run(t, "", "--version")
	require.NoError(t, res.err)
	assert.Equal(t, "1.2.3 (built: 2025-06-01)\n", res.out)
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name    string
		stdin   string
		args    []string
		wantErr bool
	}{
		{name: "flags", args: []string{"login", "-u", "alice", "-p", "secret"}},
		{name: "prompted", stdin: "alice\nsecret\n", args: []string{"login"}},
		{name: "prompted password", stdin: "secret\n", args: []string{"login", "-u", "alice"}},
		{name: "wrong password", args: []string{"login", "-u", "alice", "-p", "nope"}, wantErr: true},
		{name: "no input", args: []string{"login"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.api.AddUser("alice", "secret", false)

			res := h.run(t, tt.stdin, tt.args...)
			if tt.wantErr {
				require.Error(t, res.err)
				token, err := storage.NewFileStore(h.tokenPath).Load(context.Background())
				require.NoError(t, err)
				assert.Empty(t, token)
				return
			}
			require.NoError(t, res.err)
			assert.Contains(t, res.out, "Logged in as alice")
		})
	}
}

func TestLogin_RejectedCredentialsAreAuthErrors(t *testing.T) {
	h := newHarness(t)
	h.api.AddUser("alice", "secret", false)

	res := h.run(t, "", "login", "-u", "alice", "-p", "wrong")
	require.Error(t, res.err)
	assert.True(t, session.IsAuthError(res.err))
}

func TestSessionSurvivesRestart(t *testing.T) {
	h := newHarness(t)
	h.api.AddUser("alice", "secret", false)
	h.login(t, "alice", "secret")

	res := h.run(t, "", "whoami")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "alice")
	assert.Contains(t, res.out, "customer")

	require.NoError(t, h.run(t, "", "logout").err)
	res = h.run(t, "", "whoami")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "log in first")
}

func TestRevokedTokenLogsOut(t *testing.T) {
	h := newHarness(t)
	h.api.AddUser("alice", "secret", false)
	h.login(t, "alice", "secret")

	token, err := storage.NewFileStore(h.tokenPath).Load(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, token)
	h.api.Revoke(token)

	res := h.run(t, "", "whoami")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "log in first")

	token, err = storage.NewFileStore(h.tokenPath).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestGuardedCommands(t *testing.T) {
	tests := []struct {
		name    string
		login   bool
		args    []string
		wantErr string
	}{
		{name: "bookings anonymous", args: []string{"bookings", "mine"}, wantErr: "log in first"},
		{name: "chat anonymous", args: []string{"chat", "list"}, wantErr: "log in first"},
		{name: "create service anonymous", args: []string{"services", "create", "--title", "x", "--trade", "painter", "--zip", "1"}, wantErr: "log in first"},
		{name: "my services as customer", login: true, args: []string{"services", "mine"}, wantErr: "craftsman account"},
		{name: "create service as customer", login: true, args: []string{"services", "create", "--title", "x", "--trade", "painter", "--zip", "1"}, wantErr: "craftsman account"},
		{name: "bookings as customer", login: true, args: []string{"bookings", "mine"}},
		{name: "marketplace anonymous", args: []string{"services", "list"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.api.AddUser("alice", "secret", false)
			if tt.login {
				h.login(t, "alice", "secret")
			}

			res := h.run(t, "", tt.args...)
			if tt.wantErr == "" {
				require.NoError(t, res.err)
				return
			}
			require.Error(t, res.err)
			assert.Contains(t, res.err.Error(), tt.wantErr)
		})
	}
}

func TestServices(t *testing.T) {
	h := newHarness(t)
	bob := h.api.AddUser("bob", "secret", true)
	svc := h.api.AddService(bob, "Paint the kitchen", models.TradePainter)
	h.api.AddService(bob, "Fix the sink", models.TradePlumber)

	res := h.run(t, "", "services", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Found 2 service(s)")
	assert.Contains(t, res.out, "Paint the kitchen")

	res = h.run(t, "", "services", "list", "--trade", "plumber")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Fix the sink")
	assert.NotContains(t, res.out, "Paint the kitchen")

	h.api.GeoJSON = true
	res = h.run(t, "", "services", "show", strconv.FormatInt(svc.ID, 10))
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Paint the kitchen")
	assert.Contains(t, res.out, "bob")

	res = h.run(t, "", "services", "show", "abc")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), `invalid id "abc"`)
}

func TestCraftsmanFlow(t *testing.T) {
	h := newHarness(t)
	h.api.AddUser("alice", "secret", false)
	h.login(t, "alice", "secret")

	res := h.run(t, "", "become-craftsman", "--company", "Alice GmbH", "--city", "Berlin")
	require.NoError(t, res.err)
	assert.Contains(t, res.errOut, "you can now offer services")
	assert.True(t, h.api.User("alice").IsCraftsman)

	res = h.run(t, "", "services", "create", "--title", "Garden care", "--trade", "gardener", "--zip", "10115")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Garden care")

	res = h.run(t, "", "services", "mine")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Garden care")

	res = h.run(t, "", "overview")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "craftsman")
	assert.Contains(t, res.out, "Garden care")
}

func TestRegister(t *testing.T) {
	h := newHarness(t)

	res := h.run(t, "", "register", "-u", "carol", "--email", "carol@example.com", "-p", "pw")
	require.NoError(t, res.err)
	assert.Contains(t, res.errOut, "Account carol created")

	res = h.run(t, "", "register", "-u", "carol", "--email", "carol@example.com", "-p", "pw")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "already exists")

	h.login(t, "carol", "pw")
}

func TestBookingsAndReview(t *testing.T) {
	h := newHarness(t)
	bob := h.api.AddUser("bob", "secret", true)
	h.api.AddUser("alice", "secret", false)
	svc := h.api.AddService(bob, "Paint the kitchen", models.TradePainter)
	h.login(t, "alice", "secret")

	res := h.run(t, "", "bookings", "book", strconv.FormatInt(svc.ID, 10), "--date", "2025-07-01")
	require.NoError(t, res.err)
	assert.Contains(t, res.errOut, "requested for 2025-07-01")

	res = h.run(t, "", "bookings", "mine")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Paint the kitchen")

	res = h.run(t, "", "review", "1", "--rating", "9")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "between 1 and 5")
}

func TestChat(t *testing.T) {
	h := newHarness(t)
	bob := h.api.AddUser("bob", "secret", true)
	alice := h.api.AddUser("alice", "secret", false)
	svc := h.api.AddService(bob, "Paint the kitchen", models.TradePainter)
	conv := h.api.AddConversation(svc, alice, "Hi Bob")
	id := strconv.FormatInt(conv, 10)
	h.login(t, "alice", "secret")

	res := h.run(t, "", "chat", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "1 conversation(s)")
	assert.Contains(t, res.out, "Hi Bob")
	assert.Zero(t, h.api.Hits("GET", "/api/conversations/"+id+"/"))

	res = h.run(t, "", "chat", "send", id, "are", "you", "free?")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "are you free?")
	assert.Equal(t, 2, h.api.MessageCount(conv))

	res = h.run(t, "", "chat", "send", id, "   ")
	require.NoError(t, res.err)
	assert.Equal(t, 2, h.api.MessageCount(conv))

	res = h.run(t, "", "chat", "show", id)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Paint the kitchen")
	assert.Contains(t, res.out, "Hi Bob")
	assert.Contains(t, res.out, "are you free?")
}

func TestOffers(t *testing.T) {
	h := newHarness(t)
	bob := h.api.AddUser("bob", "secret", true)
	alice := h.api.AddUser("alice", "secret", false)
	svc := h.api.AddService(bob, "Paint the kitchen", models.TradePainter)
	conv := strconv.FormatInt(h.api.AddConversation(svc, alice, "How much?"), 10)

	h.login(t, "bob", "secret")
	res := h.run(t, "", "offers", "make", conv, "--price", "120.00", "--description", "two coats")
	require.NoError(t, res.err)
	assert.Contains(t, res.errOut, "sent")

	h.login(t, "alice", "secret")
	res = h.run(t, "", "chat", "show", conv)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "120.00")
	assert.Contains(t, res.out, "PENDING")

	res = h.run(t, "", "offers", "accept", "999", "--conversation", conv)
	require.Error(t, res.err)
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "public", path: "/services/3", want: "allow /services/3"},
		{name: "protected", path: "/my-jobs", want: "redirect-login /login?redirect=%2Fmy-jobs"},
		{name: "trailing slash", path: "/marketplace/", want: "allow /marketplace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			res := h.run(t, "", "open", tt.path)
			require.NoError(t, res.err)
			assert.Contains(t, res.out, tt.want)
		})
	}

	h := newHarness(t)
	res := h.run(t, "", "open", "/nowhere")
	require.Error(t, res.err)
}

func TestShell(t *testing.T) {
	h := newHarness(t)
	h.api.AddUser("alice", "secret", false)

	stdin := strings.Join([]string{
		"open /bookings",
		"login -u alice -p secret",
		"whoami",
		"",
		"open /chat",
		"back",
		"history",
		"bogus",
		"exit",
	}, "\n") + "\n"

	res := h.run(t, stdin, "shell")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "redirect-login /login?redirect=%2Fbookings")
	assert.Contains(t, res.out, "Continue at /bookings")
	assert.Contains(t, res.out, "alice")
	assert.Contains(t, res.out, "mycraft /chat> ")
	assert.Contains(t, res.errOut, "Error: unknown command")
}

func TestShell_EOF(t *testing.T) {
	h := newHarness(t)
	res := h.run(t, "help\n", "shell")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Shell commands")
}

func TestTokenStores(t *testing.T) {
	tests := []struct {
		name      string
		store     string
		path      string
		persisted bool
	}{
		{name: "file", store: "file", path: "token.json", persisted: true},
		{name: "sqlite", store: "sqlite", path: "state/mycraft.db", persisted: true},
		{name: "memory", store: "memory", persisted: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.api.AddUser("alice", "secret", false)
			if tt.path != "" {
				h.tokenPath = filepath.Join(t.TempDir(), tt.path)
			}

			res := h.run(t, "", "--token-store", tt.store, "login", "-u", "alice", "-p", "secret")
			require.NoError(t, res.err)

			res = h.run(t, "", "--token-store", tt.store, "whoami")
			if tt.persisted {
				require.NoError(t, res.err)
				assert.Contains(t, res.out, "alice")
				return
			}
			require.Error(t, res.err)
		})
	}
}

func TestMetricsServer(t *testing.T) {
	h := newHarness(t)
	res := h.run(t, "", "--metrics-addr", "127.0.0.1:0", "services", "list")
	require.NoError(t, res.err)
}

func TestInvalidConfig(t *testing.T) {
	h := newHarness(t)
	res := h.run(t, "", "--token-store", "cloud", "services", "list")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "config")
}
