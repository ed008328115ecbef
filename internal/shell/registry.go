package shell

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"carlog/internal/auth"
	"carlog/internal/notify"
	"carlog/internal/records"
)

// Registry is the session gate: it reacts to auth transitions by
// creating and tearing down per-session app state, and resolves request
// tokens to live state, probing the identity provider for sessions it
// has not seen yet (a restart, or a session issued before the gate came
// up).
type Registry struct {
	mu   sync.Mutex
	apps map[string]*App

	provider        *auth.Provider
	svc             *records.Service
	notificationTTL time.Duration

	// anonymous carries notices shown outside a session, e.g. the
	// sign-out confirmation on the login page.
	anonymous *notify.Hub
	sub       *auth.Subscription
}

// NewRegistry builds the gate and subscribes it to the auth event
// stream. Close releases the subscription.
func NewRegistry(provider *auth.Provider, svc *records.Service, notificationTTL time.Duration) *Registry {
	r := &Registry{
		apps:            make(map[string]*App),
		provider:        provider,
		svc:             svc,
		notificationTTL: notificationTTL,
		anonymous:       notify.NewHub(notificationTTL),
	}
	r.sub = provider.Events().Subscribe(r.handle)
	return r
}

func (r *Registry) handle(e auth.Event) {
	switch e.Type {
	case auth.EventSignedIn:
		app := r.register(e.Session)
		app.Notify("Login successful", notify.Success)
		slog.Info("session state created", "user_id", e.Session.User.ID)
	case auth.EventSignedOut:
		r.mu.Lock()
		app := r.apps[e.Token]
		delete(r.apps, e.Token)
		r.mu.Unlock()
		if app != nil {
			app.Close()
			slog.Info("session state destroyed", "user_id", app.Session().User.ID)
		}
		r.anonymous.Publish("Logged out", notify.Success)
	}
	// Password recovery carries no session state; the HTTP layer routes
	// the user to the reset form.
}

func (r *Registry) register(sess *auth.Session) *App {
	r.mu.Lock()
	defer r.mu.Unlock()
	if app, ok := r.apps[sess.Token]; ok {
		return app
	}
	app := NewApp(sess, r.svc, r.notificationTTL)
	r.apps[sess.Token] = app
	return app
}

// Lookup resolves a request token to its session state. Tokens without
// registered state are probed against the provider; a live session gets
// state created silently, anything else reports auth.ErrNoSession.
func (r *Registry) Lookup(ctx context.Context, token string) (*App, error) {
	if token == "" {
		return nil, auth.ErrNoSession
	}
	r.mu.Lock()
	app, ok := r.apps[token]
	r.mu.Unlock()
	if ok {
		return app, nil
	}

	sess, err := r.provider.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	return r.register(sess), nil
}

// Anonymous returns the hub for notices shown outside a session.
func (r *Registry) Anonymous() *notify.Hub {
	return r.anonymous
}

// Close unsubscribes from the auth stream and tears down all state.
func (r *Registry) Close() {
	r.sub.Unsubscribe()
	r.mu.Lock()
	apps := make([]*App, 0, len(r.apps))
	for token, app := range r.apps {
		apps = append(apps, app)
		delete(r.apps, token)
	}
	r.mu.Unlock()
	for _, app := range apps {
		app.Close()
	}
	r.anonymous.Close()
}
