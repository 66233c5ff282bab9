package signupflow

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tendant/signup-flow/pkg/providerauth"
	"github.com/tendant/signup-flow/pkg/serverstatus"
	"github.com/tendant/signup-flow/pkg/workspace"
)

// Verifier checks an email verification code and returns the signup
// authorization token on success.
type Verifier interface {
	Verify(ctx context.Context, email, code string) (string, error)
}

// SessionProbe resolves the caller's existing workspace memberships.
// Failure means "no session", never a fatal error.
type SessionProbe interface {
	ListMyWorkspaces(ctx context.Context) ([]workspace.Workspace, error)
}

// TokenStore receives the signup authorization token for downstream steps.
type TokenStore interface {
	StoreSignupToken(token string)
}

// Navigator performs navigation away from the flow.
type Navigator interface {
	Navigate(target string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(target string)

func (f NavigatorFunc) Navigate(target string) { f(target) }

// Controller drives the signup flow: it owns the session state, runs the
// collaborators the machine's commands name, and feeds their results back
// in as events. All transitions are serialized; collaborator calls happen
// outside the lock.
type Controller struct {
	verifier Verifier
	probe    SessionProbe
	provider providerauth.Source
	status   serverstatus.Reader
	tokens   TokenStore
	nav      Navigator

	mu        sync.Mutex
	state     State
	guards    Guards
	started   bool
	manual    bool
	verifying bool
	probing   bool
}

// ControllerOption is a functional option for configuring Controller
type ControllerOption func(*Controller)

// WithVerifier sets the verification client
func WithVerifier(v Verifier) ControllerOption {
	return func(c *Controller) {
		c.verifier = v
	}
}

// WithSessionProbe sets the session probe
func WithSessionProbe(p SessionProbe) ControllerOption {
	return func(c *Controller) {
		c.probe = p
	}
}

// WithProviderSource sets the provider auth source
func WithProviderSource(s providerauth.Source) ControllerOption {
	return func(c *Controller) {
		c.provider = s
	}
}

// WithStatusReader sets the server configuration reader
func WithStatusReader(r serverstatus.Reader) ControllerOption {
	return func(c *Controller) {
		c.status = r
	}
}

// WithTokenStore sets the security-context store
func WithTokenStore(t TokenStore) ControllerOption {
	return func(c *Controller) {
		c.tokens = t
	}
}

// WithNavigator sets the navigation sink
func WithNavigator(n Navigator) ControllerOption {
	return func(c *Controller) {
		c.nav = n
	}
}

// NewController creates a new flow controller with the given options.
// The flow does not move until Start is called.
func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		state: ChooseMethod{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start resolves the guard snapshots, computes the initial state, and
// launches the background "already authenticated" probe. The probe's
// result is discarded if the user takes any manual action, or the flow
// redirects, before it resolves.
func (c *Controller) Start(ctx context.Context) {
	guards := Guards{}

	if c.status != nil {
		status, err := c.status.Status(ctx)
		if err != nil {
			// Conservative path: no explicit signal means no email.
			slog.Warn("Server status unavailable, assuming email not configured", "err", err)
		}
		guards.EmailConfigured = status.EmailConfigured
	}

	if c.provider != nil {
		snapshot, err := c.provider.Snapshot(ctx)
		if err != nil {
			slog.Warn("Provider auth unavailable, using standard flow", "err", err)
		}
		guards.Provider = snapshot
	}

	c.mu.Lock()
	c.guards = guards
	c.started = true
	state, cmds := Initial(guards)
	c.state = state
	c.mu.Unlock()

	c.run(ctx, cmds)
	c.startupProbe(ctx)
}

// startupProbe checks for a pre-existing session in the background.
func (c *Controller) startupProbe(ctx context.Context) {
	if c.probe == nil {
		return
	}

	go func() {
		workspaces, err := c.probe.ListMyWorkspaces(ctx)
		if err != nil {
			slog.Debug("Not logged in yet", "err", err)
			c.dispatch(ctx, ProbeDenied{})
			return
		}

		c.mu.Lock()
		late := c.manual
		c.mu.Unlock()
		if late {
			// The user is already mid-signup; a stale "already logged
			// in" signal must not yank them away.
			slog.Debug("Discarding late session probe result")
			return
		}

		c.dispatch(ctx, WorkspacesListed{Workspaces: workspaces})
	}()
}

// ChooseEmailSignup records the user picking email signup on step 1.
func (c *Controller) ChooseEmailSignup(ctx context.Context) {
	c.userEvent(ctx, ChooseEmailSignup{})
}

// SetEmail records the email field on step 1.
func (c *Controller) SetEmail(ctx context.Context, email string) {
	c.userEvent(ctx, EmailChanged{Email: email})
}

// SetCode records the candidate verification code on step 2.
func (c *Controller) SetCode(ctx context.Context, code string) {
	c.userEvent(ctx, CodeChanged{Code: code})
}

// SetUserInfo records the step-3 fields.
func (c *Controller) SetUserInfo(ctx context.Context, password, firstName, lastName string) {
	c.userEvent(ctx, UserInfoChanged{Password: password, FirstName: firstName, LastName: lastName})
}

// Advance moves the flow to the next step. At step 2 this submits the
// code to the Verification Client; a second Advance while a verification
// is already in flight is ignored.
func (c *Controller) Advance(ctx context.Context) {
	c.userEvent(ctx, Submit{})
}

// RefreshProvider re-reads the provider auth snapshot and re-evaluates
// the guards. Call it whenever upstream auth state changes.
func (c *Controller) RefreshProvider(ctx context.Context) {
	if c.provider == nil {
		return
	}

	snapshot, err := c.provider.Snapshot(ctx)
	if err != nil {
		slog.Warn("Provider auth refresh failed", "err", err)
		return
	}

	c.mu.Lock()
	c.guards.Provider = snapshot
	state, cmds := ApplyGuards(c.state, c.guards)
	c.state = state
	c.mu.Unlock()

	c.run(ctx, cmds)
}

// State returns the current flow state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// View returns the presentation variant for the current state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return SelectView(c.state, c.guards)
}

// Redirected reports whether the flow has navigated away, and where to.
func (c *Controller) Redirected() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.state.(Redirected); ok {
		return r.Target, true
	}
	return "", false
}

func (c *Controller) userEvent(ctx context.Context, ev Event) {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		slog.Warn("Ignoring user event before Start")
		return
	}
	c.manual = true
	c.mu.Unlock()
	c.dispatch(ctx, ev)
}

// dispatch applies one event under the lock and then executes the
// resulting commands outside it.
func (c *Controller) dispatch(ctx context.Context, ev Event) {
	c.mu.Lock()
	if _, done := c.state.(Redirected); done {
		// No state mutation after navigation.
		c.mu.Unlock()
		return
	}
	state, cmds := Next(c.state, c.guards, ev)
	c.state = state
	c.mu.Unlock()

	c.run(ctx, cmds)
}

func (c *Controller) run(ctx context.Context, cmds []Command) {
	for _, cmd := range cmds {
		switch cmd := cmd.(type) {
		case StoreToken:
			if c.tokens != nil {
				c.tokens.StoreSignupToken(cmd.Token)
			}

		case Navigate:
			slog.Info("Leaving signup flow", "target", cmd.Target)
			if c.nav != nil {
				c.nav.Navigate(cmd.Target)
			}

		case VerifyCode:
			c.runVerify(ctx, cmd)

		case ProbeSession:
			c.runProbe(ctx)
		}
	}
}

// runVerify calls the Verification Client, keeping at most one call in
// flight so a stale result can never land after a newer one.
func (c *Controller) runVerify(ctx context.Context, cmd VerifyCode) {
	if c.verifier == nil {
		return
	}

	c.mu.Lock()
	if c.verifying {
		c.mu.Unlock()
		slog.Debug("Verification already in flight, ignoring submit")
		return
	}
	c.verifying = true
	c.mu.Unlock()

	token, err := c.verifier.Verify(ctx, cmd.Email, cmd.Code)

	c.mu.Lock()
	c.verifying = false
	c.mu.Unlock()

	if err != nil {
		slog.Info("Verification failed", "email", cmd.Email, "err", err)
		c.dispatch(ctx, VerifyFailed{})
		return
	}
	c.dispatch(ctx, VerifySucceeded{Token: token})
}

// runProbe handles the email-not-configured terminal skip: finish signup
// by dropping the user into their new workspace.
func (c *Controller) runProbe(ctx context.Context) {
	if c.probe == nil {
		return
	}

	c.mu.Lock()
	if c.probing {
		c.mu.Unlock()
		return
	}
	c.probing = true
	c.mu.Unlock()

	go func() {
		workspaces, err := c.probe.ListMyWorkspaces(ctx)

		c.mu.Lock()
		c.probing = false
		c.mu.Unlock()

		if err != nil {
			slog.Debug("Session probe failed after signup", "err", err)
			c.dispatch(ctx, ProbeDenied{})
			return
		}
		c.dispatch(ctx, WorkspacesListed{Workspaces: workspaces})
	}()
}
