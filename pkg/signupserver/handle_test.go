package signupserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/signup-flow/pkg/notification"
	"github.com/tendant/signup-flow/pkg/providerauth"
	"github.com/tendant/signup-flow/pkg/securitycontext"
	"github.com/tendant/signup-flow/pkg/serverstatus"
	"github.com/tendant/signup-flow/pkg/signupflow"
	"github.com/tendant/signup-flow/pkg/verification"
	"github.com/tendant/signup-flow/pkg/workspace"
)

const testSecret = "test-signup-secret"

func newTestBackend(t *testing.T, emailConfigured bool) (*httptest.Server, *SignupService, *notification.LogNotifier) {
	t.Helper()

	notifier := notification.NewLogNotifier()
	service := NewSignupService(
		WithNotifier(notifier),
		WithJWTSecret(testSecret),
		WithEmailConfigured(emailConfigured),
	)

	r := chi.NewRouter()
	Routes(r, NewHandle(service, jwtauth.New("HS256", []byte(testSecret), nil)))

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, service, notifier
}

func postJSON(t *testing.T, url string, body any, headers map[string]string) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestStatusEndpoint(t *testing.T) {
	server, _, _ := newTestBackend(t, true)

	resp, err := http.Get(server.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var status serverstatus.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.True(t, status.EmailConfigured)
}

func TestSignupEndpoints(t *testing.T) {
	server, _, notifier := newTestBackend(t, true)

	resp := postJSON(t, server.URL+"/api/v1/signup/code", map[string]string{"email": "a@b.com"}, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	sent := notifier.Sent()
	require.Len(t, sent, 1)
	body := sent[0].Body
	code := body[strings.LastIndex(body, " ")+1:]

	t.Run("wrong code yields 401", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/api/v1/signup/verify",
			map[string]string{"email": "a@b.com", "code": "999999x"}, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	resp = postJSON(t, server.URL+"/api/v1/signup/verify",
		map[string]string{"email": "a@b.com", "code": code}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var verifyResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&verifyResp))
	require.NotEmpty(t, verifyResp.Token)

	resp = postJSON(t, server.URL+"/api/v1/signup/complete", map[string]string{
		"email":     "a@b.com",
		"firstName": "Jane",
		"lastName":  "Doe",
		"password":  "correct-horse-battery",
	}, map[string]string{"Authorization": "Bearer " + verifyResp.Token})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var completeResp struct {
		User struct {
			Email     string `json:"email"`
			FirstName string `json:"firstName"`
		} `json:"user"`
		WorkspaceID  string `json:"workspaceId"`
		SessionToken string `json:"sessionToken"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&completeResp))
	assert.Equal(t, "a@b.com", completeResp.User.Email)
	assert.Equal(t, "Jane", completeResp.User.FirstName)
	require.NotEmpty(t, completeResp.SessionToken)

	t.Run("workspace endpoint requires a session", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/v1/workspace")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("workspace endpoint honors the session token", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, server.URL+"/api/v1/workspace", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+completeResp.SessionToken)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var workspaces []workspace.Workspace
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&workspaces))
		require.Len(t, workspaces, 1)
		assert.Equal(t, completeResp.WorkspaceID, workspaces[0].ID)
	})
}

// TestFlowAgainstBackend runs the real controller with the real HTTP
// clients against the backend, covering the whole signup sequence.
func TestFlowAgainstBackend(t *testing.T) {
	ctx := context.Background()
	server, service, notifier := newTestBackend(t, true)

	tokens := securitycontext.NewStore()
	var navigated []string

	ctrl := signupflow.NewController(
		signupflow.WithVerifier(verification.NewClient(server.URL)),
		signupflow.WithSessionProbe(workspace.NewClient(server.URL,
			workspace.WithTokenSource(tokens.SessionToken))),
		signupflow.WithStatusReader(serverstatus.NewClient(server.URL)),
		signupflow.WithProviderSource(providerauth.StaticSource{}),
		signupflow.WithTokenStore(tokens),
		signupflow.WithNavigator(signupflow.NavigatorFunc(func(target string) {
			navigated = append(navigated, target)
		})),
	)

	ctrl.Start(ctx)
	ctrl.ChooseEmailSignup(ctx)
	ctrl.SetEmail(ctx, "jane@example.com")
	require.NoError(t, service.RequestCode(ctx, "jane@example.com"))
	ctrl.Advance(ctx)
	require.Equal(t, 2, ctrl.State().Step())

	t.Run("wrong code holds the flow at step 2", func(t *testing.T) {
		ctrl.SetCode(ctx, "wrong-code")
		ctrl.Advance(ctx)
		state := ctrl.State()
		require.IsType(t, signupflow.Verify{}, state)
		assert.True(t, state.(signupflow.Verify).CodeError)
	})

	sent := notifier.Sent()
	require.NotEmpty(t, sent)
	body := sent[len(sent)-1].Body
	code := body[strings.LastIndex(body, " ")+1:]

	ctrl.SetCode(ctx, code)
	ctrl.Advance(ctx)
	require.Equal(t, 3, ctrl.State().Step())
	require.NotEmpty(t, tokens.SignupToken())

	result, err := service.CompleteSignup(ctx, CompleteSignupRequest{
		SignupToken: tokens.SignupToken(),
		Email:       "jane@example.com",
		FirstName:   "Jane",
		LastName:    "Doe",
		Password:    "correct-horse-battery",
	})
	require.NoError(t, err)
	tokens.StoreSessionToken(result.SessionToken)

	ctrl.SetUserInfo(ctx, "correct-horse-battery", "Jane", "Doe")
	ctrl.Advance(ctx)
	require.Equal(t, 4, ctrl.State().Step())

	ctrl.Advance(ctx)
	require.Equal(t, 5, ctrl.State().Step())
	assert.Equal(t, signupflow.ViewTeamInvite, ctrl.View(),
		"invite step renders when email delivery exists")
	assert.Empty(t, navigated)
}

// TestFlowAgainstBackendNoEmail covers the skip-forward guards end to
// end: no verifier call at step 2, no invite view at step 5, and a
// redirect into the new workspace.
func TestFlowAgainstBackendNoEmail(t *testing.T) {
	ctx := context.Background()
	server, service, _ := newTestBackend(t, false)

	tokens := securitycontext.NewStore()

	ctrl := signupflow.NewController(
		signupflow.WithVerifier(verification.NewClient(server.URL)),
		signupflow.WithSessionProbe(workspace.NewClient(server.URL,
			workspace.WithTokenSource(tokens.SessionToken))),
		signupflow.WithStatusReader(serverstatus.NewClient(server.URL)),
		signupflow.WithProviderSource(providerauth.StaticSource{}),
		signupflow.WithTokenStore(tokens),
		signupflow.WithNavigator(signupflow.NavigatorFunc(func(string) {})),
	)

	ctrl.Start(ctx)
	ctrl.ChooseEmailSignup(ctx)
	ctrl.SetEmail(ctx, "jane@example.com")
	ctrl.Advance(ctx)

	require.Equal(t, 3, ctrl.State().Step(), "verification skipped without email")
	assert.Empty(t, tokens.SignupToken())

	result, err := service.CompleteSignup(ctx, CompleteSignupRequest{
		Email:     "jane@example.com",
		FirstName: "Jane",
		Password:  "pw",
	})
	require.NoError(t, err)
	tokens.StoreSessionToken(result.SessionToken)

	ctrl.SetUserInfo(ctx, "pw", "Jane", "Doe")
	ctrl.Advance(ctx)
	ctrl.Advance(ctx)

	require.Eventually(t, func() bool {
		target, ok := ctrl.Redirected()
		return ok && target == workspace.DashboardPath(result.Workspace.ID)
	}, 2*time.Second, 10*time.Millisecond)
}
