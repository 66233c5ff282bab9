package signupflow

import (
	"github.com/tendant/signup-flow/pkg/providerauth"
	"github.com/tendant/signup-flow/pkg/workspace"
)

// Guards are the external snapshots that can force transitions
// independent of user action.
type Guards struct {
	// EmailConfigured reports whether the server has an email delivery
	// channel. When false, code verification and team invites are skipped.
	EmailConfigured bool

	// Provider is the external-provider authentication snapshot.
	Provider providerauth.Snapshot
}

// Initial computes the starting state for the given guard snapshots.
// The flow starts at step 1 unless a provider identity is already
// present, in which case the provider guards advance it immediately.
func Initial(g Guards) (State, []Command) {
	return ApplyGuards(ChooseMethod{}, g)
}

// Next computes the successor of current after ev, plus the commands the
// caller must execute. It is pure: no I/O and no mutation of current.
// Guard precedence follows the flow's rules: the terminal
// provider-completed guard wins over everything, then the event applies,
// then the advancing guards run on the result.
func Next(current State, g Guards, ev Event) (State, []Command) {
	if _, done := current.(Redirected); done {
		return current, nil
	}

	if s, cmds, redirected := terminalGuard(g); redirected {
		return s, cmds
	}

	next, cmds := apply(current, g, ev)
	next, more := ApplyGuards(next, g)
	return next, append(cmds, more...)
}

// ApplyGuards evaluates the guard rules against a state with no event.
// Callers invoke it whenever a guard snapshot changes; Next invokes it
// after every event. Evaluation is idempotent: re-applying to the
// resulting state is a no-op for the same guards.
func ApplyGuards(s State, g Guards) (State, []Command) {
	if _, done := s.(Redirected); done {
		return s, nil
	}

	if next, cmds, redirected := terminalGuard(g); redirected {
		return next, cmds
	}

	// Provider vouches for the email: skip entry and verification.
	if g.Provider.Present() && s.Step() < 3 {
		return UserInfo{Email: g.Provider.Email}, nil
	}

	if !g.EmailConfigured {
		switch v := s.(type) {
		case Verify:
			// No delivery channel makes verification meaningless:
			// take the success path without contacting the verifier.
			return UserInfo{Email: v.Email}, nil
		case TeamInvite:
			// Invites need email delivery. Finish signup by dropping
			// the user into their new workspace instead.
			return s, []Command{ProbeSession{}}
		}
	}

	return s, nil
}

// terminalGuard handles the provider-completed rule: an already
// provisioned provider account belongs at login, whatever the step.
func terminalGuard(g Guards) (State, []Command, bool) {
	if g.Provider.Present() && g.Provider.Completed {
		return Redirected{Target: LoginPath}, []Command{Navigate{Target: LoginPath}}, true
	}
	return nil, nil, false
}

// LoginPath is where a provider-completed user is sent.
const LoginPath = "/login"

func apply(current State, g Guards, ev Event) (State, []Command) {
	switch ev := ev.(type) {
	case ChooseEmailSignup:
		if _, ok := current.(ChooseMethod); ok {
			return EnterEmail{}, nil
		}

	case EmailChanged:
		if _, ok := current.(EnterEmail); ok {
			return EnterEmail{Email: ev.Email}, nil
		}

	case CodeChanged:
		if v, ok := current.(Verify); ok {
			v.Code = ev.Code
			return v, nil
		}

	case UserInfoChanged:
		if u, ok := current.(UserInfo); ok {
			u.Password = ev.Password
			u.FirstName = ev.FirstName
			u.LastName = ev.LastName
			return u, nil
		}

	case Submit:
		return applySubmit(current, g)

	case VerifySucceeded:
		if v, ok := current.(Verify); ok {
			return UserInfo{Email: v.Email}, []Command{StoreToken{Token: ev.Token}}
		}

	case VerifyFailed:
		if v, ok := current.(Verify); ok {
			v.CodeError = true
			return v, nil
		}

	case WorkspacesListed:
		if len(ev.Workspaces) > 0 {
			target := workspace.DashboardPath(ev.Workspaces[0].ID)
			return Redirected{Target: target}, []Command{Navigate{Target: target}}
		}

	case ProbeDenied:
		// Not logged in yet: expected, stay put.
	}

	return current, nil
}

func applySubmit(current State, g Guards) (State, []Command) {
	switch s := current.(type) {
	case ChooseMethod:
		return Verify{Code: DefaultCode}, nil

	case EnterEmail:
		return Verify{Email: s.Email, Code: DefaultCode}, nil

	case Verify:
		// Retrying clears the previous failure.
		s.CodeError = false
		if !g.EmailConfigured {
			// The skip-forward guard advances without a verifier call.
			return s, nil
		}
		return s, []Command{VerifyCode{Email: s.Email, Code: s.Code}}

	case UserInfo:
		return BackupDownload{
			Email:     s.Email,
			Password:  s.Password,
			FirstName: s.FirstName,
			LastName:  s.LastName,
		}, nil

	case BackupDownload:
		return TeamInvite{}, nil
	}

	// TeamInvite has no onward submit; invitations are sent by the step
	// view itself.
	return current, nil
}
