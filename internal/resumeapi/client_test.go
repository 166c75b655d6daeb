package resumeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-autopilot/internal/faults"
	"github.com/jonathan/resume-autopilot/internal/types"
)

// fakeAPI is an in-memory resume API.
type fakeAPI struct {
	logins   atomic.Int32
	token    string
	resume   string
	jobID    string
	statuses []string
	polls    atomic.Int32

	lastGenerate map[string]any
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		f.logins.Add(1)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["username"] != "user" || body["password"] != "pass" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"invalid credentials"}`))
			return
		}
		_, _ = fmt.Fprintf(w, `{"token":{"accessToken":%q}}`, f.token)
	})
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+f.token {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}
	mux.HandleFunc("GET /resume", authed(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprintf(w, `{"data":%s}`, f.resume)
	}))
	mux.HandleFunc("POST /resume/generate", authed(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&f.lastGenerate))
		_, _ = fmt.Fprintf(w, `{"data":{"jobId":%q}}`, f.jobID)
	}))
	mux.HandleFunc("GET /resume/status/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, f.jobID, r.PathValue("id"))
		n := int(f.polls.Add(1)) - 1
		if n >= len(f.statuses) {
			n = len(f.statuses) - 1
		}
		_, _ = w.Write([]byte(f.statuses[n]))
	}))
	return mux
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	server := httptest.NewServer(api.handler(t))
	t.Cleanup(server.Close)

	client, err := New(Options{
		BaseURL:    server.URL + "/",
		Username:   "user",
		Password:   "pass",
		HTTPClient: server.Client(),
	})
	require.NoError(t, err)
	return client
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(Options{BaseURL: "  "})
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.KindConfig))
}

func TestAuthenticate_CachesToken(t *testing.T) {
	api := &fakeAPI{token: "tok-1"}
	client := newTestClient(t, api)

	assert.False(t, client.IsAuthenticated())

	first, err := client.Authenticate(context.Background())
	require.NoError(t, err)
	second, err := client.Authenticate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "tok-1", first)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), api.logins.Load(), "second call must not hit the network")
	assert.True(t, client.IsAuthenticated())

	header, err := client.AuthHeader(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", header)
	assert.Equal(t, int32(1), api.logins.Load())
}

func TestAuthenticate_ConcurrentCallersShareLogin(t *testing.T) {
	api := &fakeAPI{token: "tok-1"}
	client := newTestClient(t, api)

	var wg sync.WaitGroup
	tokens := make([]string, 8)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := client.Authenticate(context.Background())
			assert.NoError(t, err)
			tokens[i] = tok
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), api.logins.Load())
	for _, tok := range tokens {
		assert.Equal(t, "tok-1", tok)
	}
}

func TestLogout_ForcesNewLogin(t *testing.T) {
	api := &fakeAPI{token: "tok-1"}
	client := newTestClient(t, api)

	_, err := client.Authenticate(context.Background())
	require.NoError(t, err)
	client.Logout()
	assert.False(t, client.IsAuthenticated())

	_, err = client.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), api.logins.Load())
}

func TestAuthenticate_BadCredentials(t *testing.T) {
	api := &fakeAPI{token: "tok-1"}
	client := newTestClient(t, api)
	client.password = "wrong"

	_, err := client.Authenticate(context.Background())
	require.Error(t, err)

	var fe *faults.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, faults.KindTransport, fe.Kind)
	assert.Equal(t, http.StatusUnauthorized, fe.StatusCode)
	assert.Contains(t, fe.Body, "invalid credentials")
	assert.False(t, client.IsAuthenticated())
}

func TestAuthenticate_MissingToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"token":{}}`))
	}))
	defer server.Close()

	client, err := New(Options{BaseURL: server.URL, HTTPClient: server.Client()})
	require.NoError(t, err)

	_, err = client.Authenticate(context.Background())
	assert.True(t, faults.Is(err, faults.KindProtocol))
	assert.False(t, client.IsAuthenticated())
}

func TestAuthenticate_Unreachable(t *testing.T) {
	client, err := New(Options{BaseURL: "http://127.0.0.1:1/api", Timeout: time.Second})
	require.NoError(t, err)

	_, err = client.Authenticate(context.Background())
	assert.True(t, faults.Is(err, faults.KindTransport))
}

func TestExpiresAt_ReadsJWTClaim(t *testing.T) {
	exp := time.Now().Add(10 * time.Minute).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("secret"))
	require.NoError(t, err)

	client := newTestClient(t, &fakeAPI{token: signed})
	assert.True(t, client.ExpiresAt().IsZero())

	_, err = client.Authenticate(context.Background())
	require.NoError(t, err)
	assert.True(t, exp.Equal(client.ExpiresAt()))
}

func TestExpiresAt_OpaqueToken(t *testing.T) {
	client := newTestClient(t, &fakeAPI{token: "opaque"})
	_, err := client.Authenticate(context.Background())
	require.NoError(t, err)
	assert.True(t, client.ExpiresAt().IsZero())
}

func TestFetchResume(t *testing.T) {
	api := &fakeAPI{token: "tok", resume: `{"name":"A","skills":["Go"]}`}
	client := newTestClient(t, api)

	doc, err := client.FetchResume(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, api.resume, doc.String())
	assert.Equal(t, int32(1), api.logins.Load(), "fetch logs in lazily")
}

func TestFetchResume_EmptyData(t *testing.T) {
	for _, data := range []string{`null`, `{}`, `[]`, `""`} {
		t.Run(data, func(t *testing.T) {
			client := newTestClient(t, &fakeAPI{token: "tok", resume: data})
			_, err := client.FetchResume(context.Background())
			assert.True(t, faults.Is(err, faults.KindProtocol))
		})
	}
}

func TestFetchResume_MissingDataField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/login" {
			_, _ = w.Write([]byte(`{"token":{"accessToken":"tok"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer server.Close()

	client, err := New(Options{BaseURL: server.URL, HTTPClient: server.Client()})
	require.NoError(t, err)

	_, err = client.FetchResume(context.Background())
	assert.True(t, faults.Is(err, faults.KindProtocol))
}

func TestSubmitGeneration(t *testing.T) {
	api := &fakeAPI{token: "tok", jobID: "job-42"}
	client := newTestClient(t, api)

	jobID, err := client.SubmitGeneration(context.Background(), `{"summary":"50\\% more"}`, "templates/a.cshtml", "Jane_Doe")
	require.NoError(t, err)
	assert.Equal(t, "job-42", jobID)

	assert.Equal(t, "templates/a.cshtml", api.lastGenerate["templateId"])
	assert.Equal(t, "Jane_Doe", api.lastGenerate["resumeName"])
	assert.Equal(t, map[string]any{"summary": `50\% more`}, api.lastGenerate["resumeData"])
}

func TestSubmitGeneration_InvalidDocumentSendsNothing(t *testing.T) {
	api := &fakeAPI{token: "tok", jobID: "job-42"}
	client := newTestClient(t, api)

	_, err := client.SubmitGeneration(context.Background(), `{"summary":`, "templates/a.cshtml", "Jane")
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.KindModelOutput))
	assert.Equal(t, int32(0), api.logins.Load())
	assert.Nil(t, api.lastGenerate)
}

func TestSubmitGeneration_MissingJobID(t *testing.T) {
	api := &fakeAPI{token: "tok", jobID: ""}
	client := newTestClient(t, api)

	_, err := client.SubmitGeneration(context.Background(), `{}`, "templates/a.cshtml", "Jane")
	assert.True(t, faults.Is(err, faults.KindProtocol))
}

func TestGetStatus(t *testing.T) {
	api := &fakeAPI{
		token: "tok",
		jobID: "job-1",
		statuses: []string{
			`{"status":"pending"}`,
			`{"status":"success","pdfUrl":"https://cdn/x.pdf"}`,
		},
	}
	client := newTestClient(t, api)

	first, err := client.GetStatus(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, types.JobPending, first.Status)

	second, err := client.GetStatus(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, types.JobSuccess, second.Status)
	assert.Equal(t, "https://cdn/x.pdf", second.PDFURL)
	assert.JSONEq(t, `{"status":"success","pdfUrl":"https://cdn/x.pdf"}`, string(second.Raw))
}

func TestGetStatus_FailedWithNullURL(t *testing.T) {
	api := &fakeAPI{token: "tok", jobID: "job-1", statuses: []string{`{"status":"failed","pdfUrl":null,"error":"render crashed"}`}}
	client := newTestClient(t, api)

	result, err := client.GetStatus(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, types.JobFailed, result.Status)
	assert.Equal(t, "render crashed", result.ErrorOrDefault())
}

func TestGetStatus_MissingStatus(t *testing.T) {
	api := &fakeAPI{token: "tok", jobID: "job-1", statuses: []string{`{"state":"done"}`}}
	client := newTestClient(t, api)

	_, err := client.GetStatus(context.Background(), "job-1")
	assert.True(t, faults.Is(err, faults.KindProtocol))
}

func TestGetStatus_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/login" {
			_, _ = w.Write([]byte(`{"token":{"accessToken":"tok"}}`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := New(Options{BaseURL: server.URL, HTTPClient: server.Client()})
	require.NoError(t, err)

	_, err = client.GetStatus(context.Background(), "job-1")
	var fe *faults.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, faults.KindTransport, fe.Kind)
	assert.Equal(t, http.StatusBadGateway, fe.StatusCode)
}

func TestGetStatus_Cancelled(t *testing.T) {
	client := newTestClient(t, &fakeAPI{token: "tok", jobID: "job-1", statuses: []string{`{"status":"pending"}`}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetStatus(ctx, "job-1")
	assert.True(t, faults.Is(err, faults.KindCancelled))
}
