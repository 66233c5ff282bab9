package signupflow

// DefaultCode is the placeholder verification code held in the session
// until the user types one.
const DefaultCode = "123456"

// State is one of the signup flow's states. Each variant carries only the
// fields that state needs; field values are carried forward on transition.
type State interface {
	// Step returns the numeric stage (1-5), or 0 for the terminal
	// Redirected state.
	Step() int

	isState()
}

// ChooseMethod is step 1 before the user has picked a signup method.
type ChooseMethod struct{}

// EnterEmail is step 1 after the user chose to sign up with email.
type EnterEmail struct {
	Email string
}

// Verify is step 2: the user proves control of the email with a one-time
// code. CodeError is set only immediately after a failed attempt and is
// cleared whenever verification is retried.
type Verify struct {
	Email     string
	Code      string
	CodeError bool
}

// UserInfo is step 3: name and credential collection.
type UserInfo struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// BackupDownload is step 4: the user downloads their recovery artifact.
type BackupDownload struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// TeamInvite is step 5: optional teammate invitations.
type TeamInvite struct{}

// Redirected is the terminal state: the flow has navigated away and no
// further transitions occur.
type Redirected struct {
	Target string
}

func (ChooseMethod) Step() int   { return 1 }
func (EnterEmail) Step() int     { return 1 }
func (Verify) Step() int         { return 2 }
func (UserInfo) Step() int       { return 3 }
func (BackupDownload) Step() int { return 4 }
func (TeamInvite) Step() int     { return 5 }
func (Redirected) Step() int     { return 0 }

func (ChooseMethod) isState()   {}
func (EnterEmail) isState()     {}
func (Verify) isState()         {}
func (UserInfo) isState()       {}
func (BackupDownload) isState() {}
func (TeamInvite) isState()     {}
func (Redirected) isState()     {}

// Mode identifies which step-1 variant the user chose.
type Mode int

const (
	ModeUndecided Mode = iota
	ModeWithEmail
)

// ModeOf derives the signup mode from the current state.
func ModeOf(s State) Mode {
	switch s.(type) {
	case EnterEmail:
		return ModeWithEmail
	default:
		return ModeUndecided
	}
}
