package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusgive/campusgive/internal/app"
	"github.com/campusgive/campusgive/internal/auth"
	"github.com/campusgive/campusgive/internal/donations"
	"github.com/campusgive/campusgive/internal/observability"
	"github.com/campusgive/campusgive/internal/platform/blob"
	"github.com/campusgive/campusgive/internal/security/password"
	"github.com/campusgive/campusgive/internal/security/token"
	"github.com/campusgive/campusgive/internal/testing/memstore"
	"github.com/campusgive/campusgive/internal/view"
	_ "github.com/campusgive/campusgive/testing"
)

// server is the full HTTP stack over an in-memory store and a temp upload dir.
type server struct {
	*httptest.Server
	store     *memstore.Store
	uploadDir string
}

func newServer(t *testing.T) *server {
	t.Helper()
	cfg := &app.Config{
		AppEnv:            "test",
		AppRequestTimeout: 5 * time.Second,
		JWTSecret:         "0123456789abcdef0123456789abcdef",
		TokenTTL:          time.Hour,
		BlobBackend:       app.BlobBackendLocal,
		UploadDir:         t.TempDir(),
		UploadMaxBytes:    1 << 20,
		CORSOrigins:       []string{"*"},
	}
	require.NoError(t, cfg.Validate())

	hasher, err := password.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := token.NewManager([]byte(cfg.JWTSecret), cfg.TokenTTL)
	require.NoError(t, err)
	blobs, err := blob.NewLocal(cfg.UploadDir, "/uploads/")
	require.NoError(t, err)
	templates, err := view.NewEngine()
	require.NoError(t, err)

	store := memstore.New()
	guard := auth.NewSessionGuard(tokens, nil)
	authService := auth.NewService(store.Users(), hasher, tokens)
	donationService := donations.NewService(store.Donations(), blobs, auth.NewAuthorizer(hasher), authService, nil, nil)

	router := app.NewRouter(app.RouterParams{
		Config:           cfg,
		Templates:        templates,
		Guard:            guard,
		AuthHandler:      auth.NewHandler(nil, authService, guard),
		DonationsHandler: donations.NewHandler(nil, donationService, guard.RequireAPI(), cfg.UploadMaxBytes),
		Metrics:          observability.NewMetrics(),
		UploadDir:        cfg.UploadDir,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &server{Server: srv, store: store, uploadDir: cfg.UploadDir}
}

// client never follows redirects so page guards can be observed.
func (s *server) client() *http.Client {
	return &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		Timeout:       5 * time.Second,
	}
}

// browser keeps cookies and follows redirects the way page navigation does.
func (s *server) browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

type response struct {
	status int
	header http.Header
	body   map[string]any
	raw    []byte
}

func (s *server) call(t *testing.T, method, path, tok string, body any) response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	res, err := s.client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(res.Body)
	require.NoError(t, err)
	out := response{status: res.StatusCode, header: res.Header, raw: buf.Bytes()}
	_ = json.Unmarshal(out.raw, &out.body)
	return out
}

func (s *server) register(t *testing.T, name, email, pass string) string {
	t.Helper()
	res := s.call(t, http.MethodPost, "/auth/register", "", map[string]string{"name": name, "email": email, "password": pass})
	require.Equal(t, http.StatusCreated, res.status, string(res.raw))
	return res.body["userId"].(string)
}

func (s *server) login(t *testing.T, email, pass string) string {
	t.Helper()
	res := s.call(t, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": pass})
	require.Equal(t, http.StatusOK, res.status, string(res.raw))
	return res.body["token"].(string)
}
