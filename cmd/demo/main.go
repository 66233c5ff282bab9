// Package main runs the signup backend and drives the full signup flow
// against it, playing the part of the step views. Useful for:
// - Watching the step sequencing and guard effects end to end
// - Exercising the HTTP contracts without a frontend
//
// All backend state is in memory and lost on exit.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/signup-flow/pkg/config"
	"github.com/tendant/signup-flow/pkg/notification"
	"github.com/tendant/signup-flow/pkg/providerauth"
	"github.com/tendant/signup-flow/pkg/securitycontext"
	"github.com/tendant/signup-flow/pkg/serverstatus"
	"github.com/tendant/signup-flow/pkg/signupflow"
	"github.com/tendant/signup-flow/pkg/signupserver"
	"github.com/tendant/signup-flow/pkg/verification"
	"github.com/tendant/signup-flow/pkg/workspace"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "err", err)
		os.Exit(-1)
	}

	// Email channel: SMTP when configured, log-only otherwise. The flow
	// skips the verification and invite steps in the latter case. Codes
	// are always recorded locally so runFlow can read them back.
	logNotifier := notification.NewLogNotifier()
	var notifier notification.Notifier = logNotifier
	emailConfigured := cfg.SMTP.Host != ""
	if emailConfigured {
		emailNotifier, err := notification.NewEmailNotifier(cfg.SMTP.ToSMTPConfig())
		if err != nil {
			slog.Error("Failed to create email notifier", "err", err)
			os.Exit(-1)
		}
		notifier = teeNotifier{primary: emailNotifier, record: logNotifier}
	}

	service := signupserver.NewSignupService(
		signupserver.WithNotifier(notifier),
		signupserver.WithJWTSecret(cfg.Server.JwtSecret),
		signupserver.WithCodeTTL(cfg.Server.CodeTTL),
		signupserver.WithTokenExpiry(cfg.Server.TokenTTL),
		signupserver.WithEmailConfigured(emailConfigured),
	)
	jwtAuth := jwtauth.New("HS256", []byte(cfg.Server.JwtSecret), nil)

	// chi-demo reads HOST/PORT from the environment; defaults match
	// cfg.Flow.BaseURL.
	server := app.DefaultWithoutRoutes()
	app.RoutesHealthz(server.R)
	signupserver.Routes(server.R, signupserver.NewHandle(service, jwtAuth))

	go server.Run()

	slog.Info(strings.Repeat("=", 60))
	slog.Info("Signup backend ready", "addr", cfg.Server.Addr(), "emailConfigured", emailConfigured)
	slog.Info(strings.Repeat("=", 60))

	// Give the listener a moment before the flow starts probing.
	time.Sleep(200 * time.Millisecond)

	runFlow(cfg, service, logNotifier, emailConfigured)
}

// runFlow walks one user through the whole signup sequence, taking the
// role the step views play in a real frontend.
func runFlow(cfg config.Config, service *signupserver.SignupService, logNotifier *notification.LogNotifier, emailConfigured bool) {
	ctx := context.Background()
	baseURL := cfg.Flow.BaseURL
	httpClient := &http.Client{Timeout: cfg.Flow.Timeout}

	tokens := securitycontext.NewStore()

	// The session token appears only after signup completes; the probe
	// reads it from the store on every call.
	probe := workspace.NewClient(baseURL,
		workspace.WithHTTPClient(httpClient),
		workspace.WithTokenSource(tokens.SessionToken),
	)

	ctrl := signupflow.NewController(
		signupflow.WithVerifier(verification.NewClient(baseURL, verification.WithHTTPClient(httpClient))),
		signupflow.WithSessionProbe(probe),
		signupflow.WithStatusReader(serverstatus.NewClient(baseURL, serverstatus.WithHTTPClient(httpClient))),
		signupflow.WithProviderSource(providerauth.StaticSource{}),
		signupflow.WithTokenStore(tokens),
		signupflow.WithNavigator(signupflow.NavigatorFunc(func(target string) {
			slog.Info("NAVIGATE", "target", target)
		})),
	)

	email := "jane@example.com"

	ctrl.Start(ctx)
	logStep(ctrl, "after start")

	ctrl.ChooseEmailSignup(ctx)
	ctrl.SetEmail(ctx, email)
	logStep(ctrl, "email entered")

	// The step view requests a code when the user submits their email.
	if err := service.RequestCode(ctx, email); err != nil {
		slog.Error("Failed to request code", "err", err)
		os.Exit(-1)
	}

	ctrl.Advance(ctx)
	logStep(ctrl, "after email submit")

	if emailConfigured {
		// In a real frontend the user reads the code from their inbox.
		// Here the log notifier captured it.
		sent := logNotifier.Sent()
		if len(sent) == 0 {
			slog.Error("No verification code delivered")
			os.Exit(-1)
		}
		body := sent[len(sent)-1].Body
		code := body[strings.LastIndex(body, " ")+1:]

		ctrl.SetCode(ctx, code)
		ctrl.Advance(ctx)
		logStep(ctrl, "after code submit")
	}

	ctrl.SetUserInfo(ctx, "correct-horse-battery", "Jane", "Doe")
	ctrl.Advance(ctx)
	logStep(ctrl, "after user info")

	// The user info step completes provisioning with the signup token.
	result, err := service.CompleteSignup(ctx, signupserver.CompleteSignupRequest{
		SignupToken: tokens.SignupToken(),
		Email:       email,
		FirstName:   "Jane",
		LastName:    "Doe",
		Password:    "correct-horse-battery",
	})
	if err != nil {
		slog.Error("Failed to complete signup", "err", err)
		os.Exit(-1)
	}
	tokens.StoreSessionToken(result.SessionToken)
	slog.Info("Account provisioned", "user_id", result.User.ID, "workspace_id", result.Workspace.ID)

	ctrl.Advance(ctx)
	logStep(ctrl, "after backup download")

	// At step 5 without email delivery the flow probes for the new
	// workspace and redirects on its own. Give it a moment to resolve.
	time.Sleep(500 * time.Millisecond)
	logStep(ctrl, "final")

	if target, ok := ctrl.Redirected(); ok {
		slog.Info("Flow finished", "target", target)
	} else {
		slog.Info("Flow resting", "view", ctrl.View().String())
	}
}

// teeNotifier delivers through SMTP while keeping a local record so the
// demo can read the code back.
type teeNotifier struct {
	primary *notification.EmailNotifier
	record  *notification.LogNotifier
}

func (t teeNotifier) Send(ctx context.Context, msg notification.Message) error {
	_ = t.record.Send(ctx, msg)
	return t.primary.Send(ctx, msg)
}

func logStep(ctrl *signupflow.Controller, label string) {
	state := ctrl.State()
	slog.Info("FLOW", "label", label, "step", state.Step(), "view", ctrl.View().String())
}
