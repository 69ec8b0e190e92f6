// Package reference provides the built-in capability implementations the
// portald binary serves. They answer immediately from in-memory state and
// stand in for a desktop shell's dialogs and compositor integration.
package reference

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/morezero/desktop-portal/pkg/handle"
	"github.com/morezero/desktop-portal/pkg/portal"
)

// Wallpaper applies wallpapers by recording them. The current URI per
// target is queryable so tests and the health endpoint can observe state.
type Wallpaper struct {
	mu      sync.Mutex
	current map[portal.SetOn]string
}

func NewWallpaper() *Wallpaper {
	return &Wallpaper{current: make(map[portal.SetOn]string)}
}

func (w *Wallpaper) CloseRequest(token handle.Token) {}

func (w *Wallpaper) SetWallpaperURI(ctx context.Context, token handle.Token, appID *handle.AppID, window *handle.WindowIdentifier, opts portal.WallpaperOptions) *portal.Response {
	if opts.URI == "" {
		return portal.Failed("uri is required")
	}
	if !strings.HasPrefix(opts.URI, "file://") && !strings.HasPrefix(opts.URI, "http://") && !strings.HasPrefix(opts.URI, "https://") {
		return portal.Failed("unsupported uri scheme: " + opts.URI)
	}

	target := opts.SetOn
	if target == "" {
		target = portal.SetOnBackground
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	switch target {
	case portal.SetOnBoth:
		w.current[portal.SetOnBackground] = opts.URI
		w.current[portal.SetOnLockscreen] = opts.URI
	case portal.SetOnBackground, portal.SetOnLockscreen:
		w.current[target] = opts.URI
	default:
		return portal.Failed("unknown set-on target: " + string(target))
	}
	return portal.Success(nil)
}

// Current returns the wallpaper URI applied to the given target.
func (w *Wallpaper) Current(target portal.SetOn) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current[target]
}

// Screenshot answers screenshot and color picks with fixed values.
type Screenshot struct {
	URI   string
	Color [3]float64
}

func NewScreenshot() *Screenshot {
	return &Screenshot{
		URI:   "file:///tmp/screenshot.png",
		Color: [3]float64{0, 0, 0},
	}
}

func (s *Screenshot) CloseRequest(token handle.Token) {}

func (s *Screenshot) Screenshot(ctx context.Context, token handle.Token, appID *handle.AppID, window *handle.WindowIdentifier, opts portal.ScreenshotOptions) *portal.Response {
	return portal.Success(portal.ScreenshotResults{URI: s.URI})
}

func (s *Screenshot) PickColor(ctx context.Context, token handle.Token, appID *handle.AppID, window *handle.WindowIdentifier, opts portal.ColorOptions) *portal.Response {
	return portal.Success(portal.ColorResults{Color: s.Color})
}

// Account answers GetUserInformation with the configured identity.
type Account struct {
	Info portal.UserInformation
}

func NewAccount() *Account {
	return &Account{Info: portal.UserInformation{ID: "user", Name: "User"}}
}

func (a *Account) CloseRequest(token handle.Token) {}

func (a *Account) GetUserInformation(ctx context.Context, token handle.Token, appID *handle.AppID, window *handle.WindowIdentifier, opts portal.UserInformationOptions) *portal.Response {
	return portal.Success(a.Info)
}

// castSession is the per-session state of the Screencast implementation.
type castSession struct {
	types    portal.SourceType
	selected bool
	started  bool
}

// Screencast serves a single virtual monitor stream per session.
type Screencast struct {
	mu       sync.Mutex
	sessions map[handle.Token]*castSession
	nextNode uint32
}

func NewScreencast() *Screencast {
	return &Screencast{sessions: make(map[handle.Token]*castSession), nextNode: 1}
}

func (s *Screencast) CloseRequest(token handle.Token) {}

func (s *Screencast) SessionClosed(token handle.Token) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

func (s *Screencast) AvailableSourceTypes() portal.SourceType {
	return portal.SourceTypeMonitor | portal.SourceTypeWindow
}

func (s *Screencast) AvailableCursorModes() portal.CursorMode {
	return portal.CursorModeHidden | portal.CursorModeEmbedded
}

func (s *Screencast) CreateSession(ctx context.Context, token, sessionToken handle.Token, appID *handle.AppID, opts portal.CreateSessionOptions) *portal.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[sessionToken]; exists {
		return portal.Failed("session state already exists for " + sessionToken.String())
	}
	s.sessions[sessionToken] = &castSession{types: portal.SourceTypeMonitor}
	return portal.Success(portal.CreateSessionResults{SessionID: sessionToken.String()})
}

func (s *Screencast) SelectSources(ctx context.Context, sessionToken handle.Token, appID *handle.AppID, opts portal.SelectSourcesOptions) *portal.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionToken]
	if !ok {
		return portal.Failed("no session state for " + sessionToken.String())
	}
	if opts.Types != nil {
		if *opts.Types&^s.AvailableSourceTypes() != 0 {
			return portal.Failed(fmt.Sprintf("unsupported source types: %d", *opts.Types))
		}
		sess.types = *opts.Types
	}
	sess.selected = true
	return portal.Success(nil)
}

func (s *Screencast) Start(ctx context.Context, sessionToken handle.Token, appID *handle.AppID, window *handle.WindowIdentifier, opts portal.StartCastOptions) *portal.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionToken]
	if !ok {
		return portal.Failed("no session state for " + sessionToken.String())
	}
	if !sess.selected {
		return portal.Failed("sources were not selected for " + sessionToken.String())
	}
	if sess.started {
		return portal.Failed("session already started: " + sessionToken.String())
	}
	sess.started = true

	node := s.nextNode
	s.nextNode++
	return portal.Success(portal.StartCastResults{
		Streams: []portal.Stream{
			{NodeID: node, Position: []int32{0, 0}, Size: []int32{1920, 1080}},
		},
	})
}

// SessionCount reports the number of live sessions.
func (s *Screencast) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
