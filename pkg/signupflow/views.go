package signupflow

// View identifies which step variant to present. Exactly one view (or
// ViewNone) applies to every reachable state.
type View int

const (
	// ViewNone renders nothing: the terminal state, and step 5 while the
	// email-not-configured skip is completing.
	ViewNone View = iota
	ViewInitialSignup
	ViewEnterEmail
	ViewCodeInput
	ViewUserInfo
	ViewBackupDownload
	ViewTeamInvite
)

var viewNames = map[View]string{
	ViewNone:           "none",
	ViewInitialSignup:  "initial_signup",
	ViewEnterEmail:     "enter_email",
	ViewCodeInput:      "code_input",
	ViewUserInfo:       "user_info",
	ViewBackupDownload: "backup_download",
	ViewTeamInvite:     "team_invite",
}

func (v View) String() string {
	if name, ok := viewNames[v]; ok {
		return name
	}
	return "unknown"
}

// SelectView maps a state to its presentation variant. The mapping is
// total: every reachable (state, guards) combination yields exactly one
// view.
func SelectView(s State, g Guards) View {
	switch s.(type) {
	case ChooseMethod:
		return ViewInitialSignup
	case EnterEmail:
		return ViewEnterEmail
	case Verify:
		return ViewCodeInput
	case UserInfo:
		return ViewUserInfo
	case BackupDownload:
		return ViewBackupDownload
	case TeamInvite:
		if g.EmailConfigured {
			return ViewTeamInvite
		}
		return ViewNone
	}
	return ViewNone
}
