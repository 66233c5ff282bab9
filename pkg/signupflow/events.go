package signupflow

import "github.com/tendant/signup-flow/pkg/workspace"

// Event is something that happened: a user intent or a collaborator
// response. Events drive the machine through Next.
type Event interface {
	isEvent()
}

// ChooseEmailSignup is the user picking "sign up with email" on step 1.
type ChooseEmailSignup struct{}

// EmailChanged carries the email field as the user edits it on step 1.
type EmailChanged struct {
	Email string
}

// CodeChanged carries the candidate verification code on step 2.
type CodeChanged struct {
	Code string
}

// UserInfoChanged carries the step-3 fields as the user edits them.
type UserInfoChanged struct {
	Password  string
	FirstName string
	LastName  string
}

// Submit is the user asking to advance to the next step.
type Submit struct{}

// VerifySucceeded is the Verification Client reporting a valid code.
type VerifySucceeded struct {
	Token string
}

// VerifyFailed is the Verification Client rejecting the code. Wrong code
// and unavailable service are deliberately the same event.
type VerifyFailed struct{}

// WorkspacesListed is the Session Probe resolving the caller's
// workspace memberships: an authenticated session exists.
type WorkspacesListed struct {
	Workspaces []workspace.Workspace
}

// ProbeDenied is the Session Probe failing: no session, stay in signup.
type ProbeDenied struct{}

func (ChooseEmailSignup) isEvent() {}
func (EmailChanged) isEvent()      {}
func (CodeChanged) isEvent()       {}
func (UserInfoChanged) isEvent()   {}
func (Submit) isEvent()            {}
func (VerifySucceeded) isEvent()   {}
func (VerifyFailed) isEvent()      {}
func (WorkspacesListed) isEvent()  {}
func (ProbeDenied) isEvent()       {}

// Command is a side effect the machine asks its caller to perform.
// The machine itself never does I/O.
type Command interface {
	isCommand()
}

// VerifyCode asks the caller to run the Verification Client and feed the
// result back as VerifySucceeded or VerifyFailed.
type VerifyCode struct {
	Email string
	Code  string
}

// StoreToken asks the caller to persist the signup authorization token
// to the security-context store.
type StoreToken struct {
	Token string
}

// ProbeSession asks the caller to run the Session Probe and feed the
// result back as WorkspacesListed or ProbeDenied.
type ProbeSession struct{}

// Navigate asks the caller to leave the flow for the given target.
type Navigate struct {
	Target string
}

func (VerifyCode) isCommand()   {}
func (StoreToken) isCommand()   {}
func (ProbeSession) isCommand() {}
func (Navigate) isCommand()     {}
