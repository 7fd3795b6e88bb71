package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/msc/internal/config"
	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
	envelopeHTTP "github.com/allisson/msc/internal/envelope/http"
	"github.com/allisson/msc/internal/envelope/http/dto"
	envelopeRepository "github.com/allisson/msc/internal/envelope/repository"
	envelopeService "github.com/allisson/msc/internal/envelope/service"
	envelopeUseCase "github.com/allisson/msc/internal/envelope/usecase"
)

const routerTestToken = "router-test-token"

type routerFixture struct {
	router *gin.Engine
	codec  *envelopeService.AEADCodec
}

// newRouterFixture wires the real envelope stack with in-memory stores.
func newRouterFixture(t *testing.T, cfg *config.Config) *routerFixture {
	t.Helper()
	return newRouterFixtureWithGate(t, cfg, envelopeService.NewAccessGate(routerTestToken))
}

func newRouterFixtureWithGate(t *testing.T, cfg *config.Config, gate envelopeUseCase.Authorizer) *routerFixture {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	masterKey, err := envelopeDomain.NewMasterKey(bytes.Repeat([]byte{0x42}, envelopeDomain.KeySize))
	require.NoError(t, err)

	manager := envelopeService.NewAEADManager()
	guard, err := envelopeService.NewReplayGuard(masterKey, manager, envelopeDomain.AESGCM)
	require.NoError(t, err)
	codec := envelopeService.NewAEADCodec(manager, envelopeDomain.AESGCM)
	registry := envelopeUseCase.NewSessionRegistry()

	sessionUseCase := envelopeUseCase.NewSessionUseCase(registry, envelopeService.NewKeyExchange(), time.Hour)
	channelUseCase := envelopeUseCase.NewChannelUseCase(registry, codec, guard, gate)
	replayUseCase := envelopeUseCase.NewReplayUseCase(
		guard,
		envelopeRepository.NewMemoryReplayRepository(),
		5*time.Minute,
	)

	server := NewServer(nil, "localhost", 8080, discardLogger())
	server.SetupRouter(
		ctx,
		cfg,
		envelopeHTTP.NewSessionHandler(sessionUseCase, discardLogger()),
		envelopeHTTP.NewChannelHandler(channelUseCase, envelopeHTTP.EchoProcessor, discardLogger()),
		gate,
		replayUseCase,
		nil,
	)

	return &routerFixture{router: server.router, codec: codec}
}

func (f *routerFixture) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.10:5000"
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// openSession issues a session over HTTP and unwraps its key like a client would.
func (f *routerFixture) openSession(t *testing.T) (string, envelopeDomain.SessionKey) {
	t.Helper()

	privatePEM, publicPEM, err := envelopeService.GenerateKeyPair(2048)
	require.NoError(t, err)

	w := f.do(t, http.MethodPost, "/v1/sessions", dto.IssueSessionRequest{PublicKey: string(publicPEM)}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var session dto.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))

	privateKey, err := envelopeService.ParsePrivateKey(privatePEM)
	require.NoError(t, err)
	key, err := envelopeService.NewKeyExchange().Unwrap(session.WrappedKey, privateKey)
	require.NoError(t, err)

	return session.SessionID, key
}

// clientEnvelope fetches a replay ticket and seals value under key with the ticket's ids.
func (f *routerFixture) clientEnvelope(
	t *testing.T,
	sessionID string,
	key envelopeDomain.SessionKey,
	value any,
) (string, dto.TicketResponse) {
	t.Helper()

	ticket := f.ticket(t, sessionID)

	envelope, err := f.codec.SealEnvelope(value, key, ticket.RequestID, ticket.Timestamp)
	require.NoError(t, err)

	return envelope, ticket
}

func (f *routerFixture) ticket(t *testing.T, sessionID string) dto.TicketResponse {
	t.Helper()

	w := f.do(t, http.MethodPost, "/v1/sessions/"+sessionID+"/tickets", nil, authorized(nil))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var ticket dto.TicketResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ticket))
	return ticket
}

// authorized adds the access token to headers.
func authorized(headers map[string]string) map[string]string {
	out := map[string]string{envelopeHTTP.AccessTokenHeader: routerTestToken}
	for key, value := range headers {
		out[key] = value
	}
	return out
}

func defaultRouterConfig() *config.Config {
	return &config.Config{
		RateLimitSessionEnabled:        true,
		RateLimitSessionRequestsPerSec: 100,
		RateLimitSessionBurst:          100,
		RateLimitGateEnabled:           true,
		RateLimitGateRequestsPerSec:    100,
		RateLimitGateBurst:             100,
		MetricsNamespace:               "msc_test",
	}
}

func TestRouter_Exchange(t *testing.T) {
	f := newRouterFixture(t, defaultRouterConfig())
	sessionID, key := f.openSession(t)

	payload := map[string]any{"userId": 123, "balance": 100.5}

	t.Run("Success", func(t *testing.T) {
		envelope, ticket := f.clientEnvelope(t, sessionID, key, payload)

		w := f.do(t, http.MethodPost, "/v1/sessions/"+sessionID+"/exchange", dto.EnvelopeRequest{Envelope: envelope},
			map[string]string{
				envelopeHTTP.AccessTokenHeader:     routerTestToken,
				envelopeHTTP.RequestMetadataHeader: ticket.Metadata,
			})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var response dto.SealedResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, ticket.RequestID, response.RequestID)

		var echoed map[string]any
		_, err := f.codec.OpenEnvelope(response.Envelope, key, &echoed)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"userId": float64(123), "balance": 100.5}, echoed)

		t.Run("Replay", func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/v1/sessions/"+sessionID+"/exchange",
				dto.EnvelopeRequest{Envelope: envelope},
				map[string]string{
					envelopeHTTP.AccessTokenHeader:     routerTestToken,
					envelopeHTTP.RequestMetadataHeader: ticket.Metadata,
				})
			assert.Equal(t, http.StatusConflict, w.Code)
			assert.Contains(t, w.Body.String(), `"code":"replay_detected"`)
		})

		t.Run("ReplayUnderFreshTicket", func(t *testing.T) {
			captured, err := envelopeDomain.Unpack(envelope)
			require.NoError(t, err)
			fresh := f.ticket(t, sessionID)

			w := f.do(t, http.MethodPost, "/v1/sessions/"+sessionID+"/exchange",
				dto.EnvelopeRequest{Envelope: envelopeDomain.Pack(captured.Bundle, fresh.RequestID, fresh.Timestamp)},
				authorized(map[string]string{envelopeHTTP.RequestMetadataHeader: fresh.Metadata}))
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Contains(t, w.Body.String(), `"code":"authentication_failed"`)
		})
	})

	t.Run("Error_WrongToken", func(t *testing.T) {
		envelope, ticket := f.clientEnvelope(t, sessionID, key, payload)

		w := f.do(t, http.MethodPost, "/v1/sessions/"+sessionID+"/exchange", dto.EnvelopeRequest{Envelope: envelope},
			map[string]string{
				envelopeHTTP.AccessTokenHeader:     "nope",
				envelopeHTTP.RequestMetadataHeader: ticket.Metadata,
			})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Error_MissingMetadata", func(t *testing.T) {
		envelope, _ := f.clientEnvelope(t, sessionID, key, payload)

		w := f.do(t, http.MethodPost, "/v1/sessions/"+sessionID+"/exchange", dto.EnvelopeRequest{Envelope: envelope},
			map[string]string{envelopeHTTP.AccessTokenHeader: routerTestToken})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"missing_metadata"`)
	})

	t.Run("Error_MetadataFromAnotherRequest", func(t *testing.T) {
		envelope, _ := f.clientEnvelope(t, sessionID, key, payload)
		_, other := f.clientEnvelope(t, sessionID, key, payload)

		w := f.do(t, http.MethodPost, "/v1/sessions/"+sessionID+"/exchange", dto.EnvelopeRequest{Envelope: envelope},
			map[string]string{
				envelopeHTTP.AccessTokenHeader:     routerTestToken,
				envelopeHTTP.RequestMetadataHeader: other.Metadata,
			})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"metadata_mismatch"`)
	})

	t.Run("Error_WrongSessionKey", func(t *testing.T) {
		otherKey, err := envelopeDomain.NewSessionKey()
		require.NoError(t, err)
		envelope, ticket := f.clientEnvelope(t, sessionID, otherKey, payload)

		w := f.do(t, http.MethodPost, "/v1/sessions/"+sessionID+"/exchange", dto.EnvelopeRequest{Envelope: envelope},
			map[string]string{
				envelopeHTTP.AccessTokenHeader:     routerTestToken,
				envelopeHTTP.RequestMetadataHeader: ticket.Metadata,
			})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestRouter_SealOpenRevoke(t *testing.T) {
	f := newRouterFixture(t, defaultRouterConfig())
	sessionID, key := f.openSession(t)

	w := f.do(t, http.MethodPost, "/v1/sessions/"+sessionID+"/seal", dto.SealRequest{
		RequestID: "req-1",
		Data:      json.RawMessage(`{"ok":true}`),
	}, authorized(nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var sealed dto.SealedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sealed))

	var clientView map[string]bool
	_, err := f.codec.OpenEnvelope(sealed.Envelope, key, &clientView)
	require.NoError(t, err)
	assert.True(t, clientView["ok"])

	w = f.do(t, http.MethodPost, "/v1/sessions/"+sessionID+"/open", dto.EnvelopeRequest{Envelope: sealed.Envelope},
		authorized(map[string]string{envelopeHTTP.RequestMetadataHeader: sealed.Metadata}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var opened dto.OpenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opened))
	assert.Equal(t, "req-1", opened.RequestID)
	assert.JSONEq(t, `{"ok":true}`, string(opened.Data))

	w = f.do(t, http.MethodDelete, "/v1/sessions/"+sessionID, nil, authorized(nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodPost, "/v1/sessions/"+sessionID+"/tickets", nil, authorized(nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_SessionRoutesRequireAccessToken(t *testing.T) {
	f := newRouterFixture(t, defaultRouterConfig())
	sessionID, _ := f.openSession(t)

	routes := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodPost, "/v1/sessions/" + sessionID + "/tickets", nil},
		{http.MethodPost, "/v1/sessions/" + sessionID + "/seal", dto.SealRequest{Data: json.RawMessage(`1`)}},
		{http.MethodPost, "/v1/sessions/" + sessionID + "/open", dto.EnvelopeRequest{Envelope: "msc{}"}},
		{http.MethodPost, "/v1/sessions/" + sessionID + "/exchange", dto.EnvelopeRequest{Envelope: "msc{}"}},
		{http.MethodDelete, "/v1/sessions/" + sessionID, nil},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			for _, headers := range []map[string]string{
				nil,
				{envelopeHTTP.AccessTokenHeader: "router-test-tokeX"},
			} {
				w := f.do(t, route.method, route.path, route.body, headers)
				assert.Equal(t, http.StatusUnauthorized, w.Code)
				assert.Contains(t, w.Body.String(), `"code":"access_denied"`)
			}
		})
	}

	// The session survived every rejected DELETE.
	f.ticket(t, sessionID)
}

func TestRouter_GateRateLimit(t *testing.T) {
	cfg := defaultRouterConfig()
	cfg.RateLimitGateRequestsPerSec = 0.001
	cfg.RateLimitGateBurst = 2
	gate := &countingAuthorizer{next: envelopeService.NewAccessGate(routerTestToken)}
	f := newRouterFixtureWithGate(t, cfg, gate)
	path := "/v1/sessions/" + uuid.Must(uuid.NewV7()).String() + "/exchange"

	for range 2 {
		w := f.do(t, http.MethodPost, path, dto.EnvelopeRequest{Envelope: "msc{}"},
			map[string]string{envelopeHTTP.AccessTokenHeader: "guess"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	require.Equal(t, int64(2), gate.calls.Load())

	w := f.do(t, http.MethodPost, path, dto.EnvelopeRequest{Envelope: "msc{}"},
		map[string]string{envelopeHTTP.AccessTokenHeader: "guess"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, int64(2), gate.calls.Load(), "the gate must not run once the limit is hit")
}

type countingAuthorizer struct {
	next  envelopeUseCase.Authorizer
	calls atomic.Int64
}

func (a *countingAuthorizer) Authorize(token string) error {
	a.calls.Add(1)
	return a.next.Authorize(token)
}

func TestRouter_SessionRateLimit(t *testing.T) {
	cfg := defaultRouterConfig()
	cfg.RateLimitSessionRequestsPerSec = 0.001
	cfg.RateLimitSessionBurst = 1
	f := newRouterFixture(t, cfg)

	w := f.do(t, http.MethodPost, "/v1/sessions", dto.IssueSessionRequest{PublicKey: "bogus"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = f.do(t, http.MethodPost, "/v1/sessions", dto.IssueSessionRequest{PublicKey: "bogus"}, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRouter_NoMetricsEndpoint(t *testing.T) {
	f := newRouterFixture(t, defaultRouterConfig())

	w := f.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
