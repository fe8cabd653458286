package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/gin-gonic/gin"
	"github.com/limpehfi/limpeh"
	model2 "github.com/limpehfi/limpeh/api/model"
	"github.com/limpehfi/limpeh/config"
	"github.com/limpehfi/limpeh/internal/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWallet = "0x1111111111111111111111111111111111111111"

type TestRequest struct {
	Payload  io.Reader
	Router   *gin.Engine
	Response interface{}
	Method   string
	Route    string
	Header   map[string]string
}

func SetUpTestRequest(s TestRequest) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(s.Method, s.Route, s.Payload)
	for key, value := range s.Header {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	s.Router.ServeHTTP(resp, req)

	err := json.NewDecoder(resp.Body).Decode(&s.Response)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func setupRouter(t *testing.T) (*gin.Engine, *limpeh.Limpeh) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	config.MockConfig(&config.Configuration{
		ProjectName: "Limpeh Test",
		Redis:       config.RedisConfig{Dns: mr.Addr()},
		Chain: config.ChainConfig{
			Networks: map[string]config.NetworkConfig{
				"mainnet": {ChainID: 1, RpcUrl: "http://localhost:8545"},
			},
			DefaultNetwork: "mainnet",
		},
		Queue: config.QueueConfig{
			WebhookQueue:   "webhook_queue",
			AllowanceQueue: "allowance_reconcile_queue",
		},
	})

	l, err := limpeh.NewLimpeh(&limpeh.MockGateway{}, &limpeh.MockVerifier{})
	require.NoError(t, err)

	return NewAPI(l).Router(), l
}

func TestVerificationFlow(t *testing.T) {
	router, _ := setupRouter(t)
	sessionID := gofakeit.UUID()

	startPayload, _ := request.ToJsonReq(&model2.StartVerification{Address: testWallet})
	var startResponse map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  startPayload,
		Response: &startResponse,
		Method:   "POST",
		Route:    fmt.Sprintf("/verification/%s/start", sessionID),
		Router:   router,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "PROOF_REQUESTED", startResponse["state"])

	verifyPayload, _ := request.ToJsonReq(&model2.SubmitProof{
		Address:       testWallet,
		MerkleRoot:    "0xroot",
		NullifierHash: "0xnull",
		Proof:         "0xproof",
	})
	var verifyResponse map[string]interface{}
	resp, err = SetUpTestRequest(TestRequest{
		Payload:  verifyPayload,
		Response: &verifyResponse,
		Method:   "POST",
		Route:    fmt.Sprintf("/verification/%s/verify", sessionID),
		Router:   router,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "VERIFIED", verifyResponse["state"])
	assert.Equal(t, true, verifyResponse["verified"])

	var getResponse map[string]interface{}
	resp, err = SetUpTestRequest(TestRequest{
		Response: &getResponse,
		Method:   "GET",
		Route:    fmt.Sprintf("/verification/%s", sessionID),
		Router:   router,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "VERIFIED", getResponse["state"])
}

func TestSubmitProofValidation(t *testing.T) {
	router, _ := setupRouter(t)

	tests := []struct {
		name         string
		payload      model2.SubmitProof
		expectedCode int
	}{
		{
			name:         "missing everything",
			payload:      model2.SubmitProof{},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "bad address",
			payload: model2.SubmitProof{
				Address:       "not-hex",
				MerkleRoot:    "0xroot",
				NullifierHash: "0xnull",
				Proof:         "0xproof",
			},
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payloadBytes, _ := request.ToJsonReq(&tt.payload)
			var response map[string]interface{}
			resp, _ := SetUpTestRequest(TestRequest{
				Payload:  payloadBytes,
				Response: &response,
				Method:   "POST",
				Route:    fmt.Sprintf("/verification/%s/verify", gofakeit.UUID()),
				Router:   router,
			})
			assert.Equal(t, tt.expectedCode, resp.Code)
		})
	}
}

func TestWalletConnectAndDisconnect(t *testing.T) {
	router, _ := setupRouter(t)
	sessionID := gofakeit.UUID()

	connectPayload, _ := request.ToJsonReq(&model2.ConnectWallet{Address: testWallet, ChainID: 1})
	var connectResponse map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  connectPayload,
		Response: &connectResponse,
		Method:   "POST",
		Route:    fmt.Sprintf("/wallet/%s/connect", sessionID),
		Router:   router,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, true, connectResponse["is_connected"])

	var disconnectResponse map[string]interface{}
	resp, err = SetUpTestRequest(TestRequest{
		Response: &disconnectResponse,
		Method:   "POST",
		Route:    fmt.Sprintf("/wallet/%s/disconnect", sessionID),
		Router:   router,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, false, disconnectResponse["is_connected"])
}

func TestWalletConnectUnsupportedChain(t *testing.T) {
	router, _ := setupRouter(t)

	payload, _ := request.ToJsonReq(&model2.ConnectWallet{Address: testWallet, ChainID: 4242})
	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  payload,
		Response: &response,
		Method:   "POST",
		Route:    fmt.Sprintf("/wallet/%s/connect", gofakeit.UUID()),
		Router:   router,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestBorrowRequiresVerifiedSession(t *testing.T) {
	router, _ := setupRouter(t)

	payload, _ := request.ToJsonReq(&model2.LoanRequest{
		SessionID: gofakeit.UUID(),
		Address:   testWallet,
		Amount:    "200",
	})
	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  payload,
		Response: &response,
		Method:   "POST",
		Route:    "/loans/borrow",
		Router:   router,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, response["error"], "World ID")
}

func TestBorrowValidation(t *testing.T) {
	router, _ := setupRouter(t)

	tests := []struct {
		name    string
		payload model2.LoanRequest
	}{
		{name: "missing session", payload: model2.LoanRequest{Address: testWallet, Amount: "200"}},
		{name: "missing address", payload: model2.LoanRequest{SessionID: gofakeit.UUID(), Amount: "200"}},
		{name: "bad address", payload: model2.LoanRequest{SessionID: gofakeit.UUID(), Address: "nope", Amount: "200"}},
		{name: "missing amount", payload: model2.LoanRequest{SessionID: gofakeit.UUID(), Address: testWallet}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payloadBytes, _ := request.ToJsonReq(&tt.payload)
			var response map[string]interface{}
			resp, _ := SetUpTestRequest(TestRequest{
				Payload:  payloadBytes,
				Response: &response,
				Method:   "POST",
				Route:    "/loans/borrow",
				Router:   router,
			})
			assert.Equal(t, http.StatusBadRequest, resp.Code)
		})
	}
}

func TestGetAccountContractReadFailure(t *testing.T) {
	router, _ := setupRouter(t)

	// The zero-value gateway has no provider, so the read surfaces as an
	// upstream failure.
	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Response: &response,
		Method:   "GET",
		Route:    fmt.Sprintf("/accounts/%s", testWallet),
		Router:   router,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.Code)
}
