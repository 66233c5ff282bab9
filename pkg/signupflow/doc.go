// Package signupflow implements the client-side signup step sequencer.
//
// The flow walks a new user through account creation in a fixed but
// conditionally-skippable sequence: choose a signup method, verify the
// email with a one-time code, supply personal and credential info,
// download a recovery artifact, and optionally invite teammates.
//
// # Overview
//
// The package provides:
//   - Tagged flow states (ChooseMethod through TeamInvite, plus the
//     terminal Redirected state), each carrying only its own fields
//   - A pure transition function, Next, driven by Events and emitting
//     Commands for the caller to execute
//   - Guard evaluation (ApplyGuards) for the conditions that force
//     transitions independent of user action: an existing session, a
//     provider-authenticated identity, and a server without email
//     delivery configured
//   - View selection (SelectView), a total mapping from state to the
//     step variant to present
//   - Controller, the asynchronous driver that owns the state, calls
//     the collaborators, and serializes all transitions
//
// # Basic Usage
//
//	ctrl := signupflow.NewController(
//		signupflow.WithVerifier(verification.NewClient(baseURL)),
//		signupflow.WithSessionProbe(workspace.NewClient(baseURL)),
//		signupflow.WithStatusReader(serverstatus.NewClient(baseURL)),
//		signupflow.WithProviderSource(providerauth.StaticSource{}),
//		signupflow.WithTokenStore(securitycontext.NewStore()),
//		signupflow.WithNavigator(signupflow.NavigatorFunc(func(target string) {
//			// leave the flow
//		})),
//	)
//
//	ctrl.Start(ctx)
//	ctrl.ChooseEmailSignup(ctx)
//	ctrl.SetEmail(ctx, "john@example.com")
//	ctrl.Advance(ctx) // to code verification
//	ctrl.SetCode(ctx, "123456")
//	ctrl.Advance(ctx) // verifies the code, then step 3
//
// # Guard Semantics
//
// Guards re-evaluate after every event and whenever a snapshot changes.
// The provider-completed guard is terminal and wins over the advancing
// guards; a provider identity that is not yet provisioned fast-forwards
// the flow to the user info step; a server without email delivery skips
// code verification entirely and ends the flow by probing for the new
// workspace instead of rendering the invite step.
//
// The startup "already authenticated" probe runs in the background. Its
// result is discarded once the user takes any manual action, so a
// late-resolving session never interrupts an active signup.
package signupflow
