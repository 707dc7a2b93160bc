// Package auth manages the Google OAuth credentials planstack acts with.
// The interactive consent flow runs only through Authorize; every other
// entry point works off the cached token and fails fast when it is missing
// or no longer refreshable.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/harrisonrobin/planstack/pkg/config"
)

const (
	// credentialsFile is the OAuth client downloaded from the Google Cloud
	// console, expected in the config directory.
	credentialsFile = "credentials.json"

	// tokenFile caches the user's access and refresh tokens.
	tokenFile = "token.json"

	// loopbackPort is where the local server listens for the OAuth
	// redirect. The client's redirect URI must use the same port.
	loopbackPort = "6789"
)

// ErrNotAuthorized means no token has been cached yet.
var ErrNotAuthorized = errors.New("not authorized with Google Calendar, run 'planstack auth' first")

// Service returns an authenticated Calendar service. It refreshes the
// cached token when needed and re-persists it after a refresh, but never
// starts an interactive flow: without a cached token it returns
// ErrNotAuthorized.
func Service(ctx context.Context) (*calendar.Service, error) {
	conf, err := oauthConfig()
	if err != nil {
		return nil, err
	}

	path, err := tokenPath()
	if err != nil {
		return nil, err
	}
	tok, err := tokenFromFile(path)
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return nil, ErrNotAuthorized
		}
		return nil, err
	}

	src := &savingSource{src: conf.TokenSource(ctx, tok), path: path, last: tok.AccessToken}

	// Force one refresh now so a revoked or expired grant fails the run
	// before any calendar call happens.
	if _, err := src.Token(); err != nil {
		return nil, errors.Wrap(err, "refreshing access token")
	}

	srv, err := calendar.NewService(ctx, option.WithTokenSource(src))
	if err != nil {
		return nil, errors.Wrap(err, "building calendar service")
	}
	return srv, nil
}

// Authorize runs the interactive consent flow: it starts a loopback
// listener, prints the consent URL, exchanges the returned code and caches
// the token. The listener is torn down on every exit path.
func Authorize(ctx context.Context) error {
	conf, err := oauthConfig()
	if err != nil {
		return err
	}
	conf.RedirectURL = fmt.Sprintf("http://localhost:%s/oauth2callback", loopbackPort)

	listener, err := net.Listen("tcp", "localhost:"+loopbackPort)
	if err != nil {
		return errors.Wrapf(err, "starting loopback listener on port %s", loopbackPort)
	}
	defer listener.Close()

	// The state nonce ties the redirect back to this run.
	state := uuid.NewString()
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	server := &http.Server{
		Handler:      callbackHandler(state, codeCh, errCh),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			select {
			case errCh <- errors.Wrap(err, "loopback server"):
			default:
			}
		}
	}()
	defer server.Shutdown(context.Background())

	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Printf("Open the following URL in your browser to authorize planstack:\n\n  %s\n\n", authURL)
	log.Info().Msg("waiting for authorization")

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return errors.New("authorization timed out, please try again")
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	tok, err := conf.Exchange(exchangeCtx, code)
	if err != nil {
		return errors.Wrap(err, "exchanging authorization code")
	}

	path, err := tokenPath()
	if err != nil {
		return err
	}
	if err := saveToken(path, tok); err != nil {
		return err
	}
	fmt.Printf("Token saved to %s\n", path)
	return nil
}

// callbackHandler answers the OAuth redirect and hands the outcome over the
// channels. Sends never block: only the first outcome counts, and a handler
// stuck on a full channel would hold up the server's graceful shutdown.
func callbackHandler(state string, codeCh chan<- string, errCh chan<- error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			select {
			case errCh <- errors.New("authorization response carried an unexpected state"):
			default:
			}
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "authorization code missing", http.StatusBadRequest)
			select {
			case errCh <- errors.New("authorization response carried no code"):
			default:
			}
			return
		}
		fmt.Fprintln(w, "Authentication successful! You can close this window.")
		select {
		case codeCh <- code:
		default:
		}
	}
}

// Wipe removes the cached token so the next Service call demands a fresh
// authorization.
func Wipe() error {
	path, err := tokenPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing cached token")
	}
	return nil
}

// savingSource persists tokens whenever the wrapped source hands back a new
// one, so a refreshed access token survives the process.
type savingSource struct {
	src  oauth2.TokenSource
	path string

	mu   sync.Mutex
	last string
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		if err := saveToken(s.path, tok); err != nil {
			log.Warn().Err(err).Msg("could not persist refreshed token")
		} else {
			s.last = tok.AccessToken
		}
	}
	return tok, nil
}

func oauthConfig() (*oauth2.Config, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, credentialsFile)
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf("no OAuth client at %s, download credentials.json from the Google Cloud console and place it there", path)
		}
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	conf, err := google.ConfigFromJSON(b, calendar.CalendarEventsScope, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, errors.Wrap(err, "parsing client credentials")
	}
	return conf, nil
}

func tokenPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, tokenFile), nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, errors.Wrapf(err, "decoding token file %s", path)
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.Wrap(err, "creating token directory")
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return errors.Wrapf(err, "opening token file %s", path)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(tok); err != nil {
		return errors.Wrap(err, "encoding token")
	}
	return nil
}
