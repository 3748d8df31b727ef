package horizon_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paypulse/walletsync/internal/domain/errors"
	"github.com/paypulse/walletsync/internal/ledger"
	"github.com/paypulse/walletsync/internal/ledger/horizon"
	"github.com/paypulse/walletsync/internal/testutil"
)

func newClient(t *testing.T, handler http.Handler) (*horizon.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return horizon.NewClient(horizon.Config{
		BaseURL:           srv.URL,
		NetworkPassphrase: "Test Network",
	}), srv
}

func TestSubmitTransaction_Success(t *testing.T) {
	var gotTx string
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/transactions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotTx = r.PostFormValue("tx")
		json.NewEncoder(w).Encode(map[string]any{"hash": "abc123", "successful": true})
	}))

	rec := testutil.NewTestRecord("GSENDER", "GRECIPIENT", "42.5")
	ref, err := client.SubmitTransaction(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "abc123", ref)

	// The posted envelope round-trips the record fields.
	raw, err := base64.StdEncoding.DecodeString(gotTx)
	require.NoError(t, err)
	var env map[string]any
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, "GSENDER", env["sender"])
	assert.Equal(t, "42.5", env["amount"])
	assert.Equal(t, rec.Nonce, env["nonce"])
	assert.Equal(t, "Test Network", env["network"])
}

func TestSubmitTransaction_DuplicateIsAlreadyApplied(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{
			"title":  "Transaction Already Submitted",
			"extras": map[string]any{"hash": "orig456"},
		})
	}))

	rec := testutil.NewTestRecord("GSENDER", "GRECIPIENT", "10")
	_, err := client.SubmitTransaction(context.Background(), rec)
	require.Error(t, err)
	assert.Equal(t, ledger.AlreadyApplied, ledger.ClassOf(err))

	var se *ledger.SubmitError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "orig456", se.Ref)
}

func TestSubmitTransaction_DuplicateWithoutHashIsRetryable(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{
			"title": "Transaction Already Submitted",
		})
	}))

	rec := testutil.NewTestRecord("GSENDER", "GRECIPIENT", "10")
	_, err := client.SubmitTransaction(context.Background(), rec)
	require.Error(t, err)
	assert.Equal(t, ledger.Retryable, ledger.ClassOf(err))
}

func TestSubmitTransaction_InsufficientBalanceIsPermanent(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"extras": map[string]any{
				"result_codes": map[string]any{
					"transaction": "tx_failed",
					"operations":  []string{"op_underfunded"},
				},
			},
		})
	}))

	rec := testutil.NewTestRecord("GSENDER", "GRECIPIENT", "10")
	_, err := client.SubmitTransaction(context.Background(), rec)
	assert.Equal(t, ledger.Permanent, ledger.ClassOf(err))
	assert.ErrorIs(t, err, errors.ErrInsufficientBalance)
}

func TestSubmitTransaction_ServerErrorIsRetryable(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	rec := testutil.NewTestRecord("GSENDER", "GRECIPIENT", "10")
	_, err := client.SubmitTransaction(context.Background(), rec)
	assert.Equal(t, ledger.Retryable, ledger.ClassOf(err))
}

func TestSubmitTransaction_TimeoutIsRetryable(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	}))

	rec := testutil.NewTestRecord("GSENDER", "GRECIPIENT", "10")
	_, err := client.SubmitTransaction(context.Background(), rec)
	assert.Equal(t, ledger.Retryable, ledger.ClassOf(err))
	assert.ErrorIs(t, err, errors.ErrLedgerTimeout)
}

func TestSubmitTransaction_RejectedEnvelopeIsPermanent(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"hash": "h", "successful": false})
	}))

	rec := testutil.NewTestRecord("GSENDER", "GRECIPIENT", "10")
	_, err := client.SubmitTransaction(context.Background(), rec)
	assert.Equal(t, ledger.Permanent, ledger.ClassOf(err))
}

func TestConfirmTransaction_NotIngestedYet(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	ok, err := client.ConfirmTransaction(context.Background(), "pending-hash")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConfirmTransaction_Confirmed(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transactions/abc123", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"hash": "abc123", "successful": true})
	}))

	ok, err := client.ConfirmTransaction(context.Background(), "abc123")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConfirmTransaction_AppliedUnsuccessfullyIsPermanent(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"hash": "abc123", "successful": false})
	}))

	_, err := client.ConfirmTransaction(context.Background(), "abc123")
	require.Error(t, err)
	assert.Equal(t, ledger.Permanent, ledger.ClassOf(err))
}

func TestProbeConnectivity(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ledgers", r.URL.Path)
		w.Write([]byte(`{}`))
	}))
	assert.NoError(t, client.ProbeConnectivity(context.Background()))
}

func TestProbeConnectivity_Down(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := horizon.NewClient(horizon.Config{BaseURL: srv.URL})
	srv.Close()
	assert.Error(t, client.ProbeConnectivity(context.Background()))
}

func TestGetBalance_Native(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/accounts/GSENDER", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"balances": []map[string]any{
				{"balance": "12.0000000", "asset_type": "credit_alphanum4"},
				{"balance": "100.5000000", "asset_type": "native"},
			},
		})
	}))

	bal, err := client.GetBalance(context.Background(), "GSENDER")
	require.NoError(t, err)
	assert.Equal(t, "100.5", bal.String())
}

func TestGetBalance_UnfundedAccountIsZero(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	bal, err := client.GetBalance(context.Background(), "GNOBODY")
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
}
