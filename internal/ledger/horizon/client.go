// Package horizon implements the ledger client against a Horizon-style
// HTTP API: transaction submission, confirmation lookup, a cheap ledger
// read used as the connectivity probe, and account balances.
package horizon

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paypulse/walletsync/internal/domain/errors"
	"github.com/paypulse/walletsync/internal/domain/payment"
	"github.com/paypulse/walletsync/internal/ledger"
)

// permanentResultCodes are ledger rejections no retry can fix.
var permanentResultCodes = map[string]error{
	"tx_insufficient_balance": errors.ErrInsufficientBalance,
	"op_underfunded":          errors.ErrInsufficientBalance,
	"op_no_destination":       errors.ErrInvalidDestination,
	"op_malformed":            errors.ErrInvalidDestination,
	"tx_bad_auth":             errors.ErrInvalidSignature,
	"tx_malformed":            errors.ErrInvalidInput,
}

type Config struct {
	BaseURL           string
	NetworkPassphrase string
	HTTPTimeout       time.Duration
}

type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

// envelope is the wire form of a signed payment record.
type envelope struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
	Asset     string `json:"asset"`
	Nonce     string `json:"nonce"`
	CreatedAt string `json:"created_at"`
	Signature string `json:"signature"`
	Network   string `json:"network,omitempty"`
}

type submitResponse struct {
	Hash       string `json:"hash"`
	Successful bool   `json:"successful"`
}

// problem is the RFC 7807 error body Horizon-style APIs return.
type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
	Extras struct {
		ResultCodes struct {
			Transaction string   `json:"transaction"`
			Operations  []string `json:"operations"`
		} `json:"result_codes"`
		Hash string `json:"hash"`
	} `json:"extras"`
}

// SubmitTransaction posts the record's envelope. The ledger deduplicates by
// (sender, nonce): a duplicate submission is answered with the original
// result, which the client surfaces as AlreadyApplied.
func (c *Client) SubmitTransaction(ctx context.Context, rec *payment.Record) (string, error) {
	env := envelope{
		Sender:    rec.Sender,
		Recipient: rec.Recipient,
		Amount:    rec.Amount.String(),
		Asset:     rec.Asset,
		Nonce:     rec.Nonce,
		CreatedAt: rec.CreatedAt.UTC().Truncate(time.Microsecond).Format(payment.TimestampLayout),
		Signature: base64.StdEncoding.EncodeToString(rec.Signature),
		Network:   c.cfg.NetworkPassphrase,
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return "", ledger.NewSubmitError(ledger.Permanent, "marshal envelope", err)
	}

	form := url.Values{"tx": {base64.StdEncoding.EncodeToString(raw)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/transactions",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", ledger.NewSubmitError(ledger.Retryable, "build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", ledger.NewSubmitError(ledger.Retryable, "submit request failed", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", ledger.NewSubmitError(ledger.Retryable, "read submit response", err)
	}

	if resp.StatusCode == http.StatusOK {
		var sr submitResponse
		if err := json.Unmarshal(body, &sr); err != nil {
			return "", ledger.NewSubmitError(ledger.Retryable, "decode submit response", err)
		}
		if !sr.Successful {
			return "", ledger.NewSubmitError(ledger.Permanent, "transaction rejected", nil)
		}
		return sr.Hash, nil
	}

	return "", c.submitProblem(resp.StatusCode, body)
}

func (c *Client) submitProblem(status int, body []byte) error {
	var p problem
	_ = json.Unmarshal(body, &p)

	// Duplicate envelope: the ledger already holds a result for this hash.
	// Without the original hash the application cannot be confirmed, so the
	// miss is surfaced as retryable instead of a success with no reference.
	if status == http.StatusConflict {
		if p.Extras.Hash == "" {
			return ledger.NewSubmitError(ledger.Retryable, "duplicate submission reported without transaction hash", nil)
		}
		se := ledger.NewSubmitError(ledger.AlreadyApplied, "transaction already submitted", nil)
		se.Ref = p.Extras.Hash
		return se
	}

	if code := p.Extras.ResultCodes.Transaction; code != "" {
		if cause, ok := permanentResultCodes[code]; ok {
			return ledger.NewSubmitError(ledger.Permanent, "result code "+code, cause)
		}
	}
	for _, code := range p.Extras.ResultCodes.Operations {
		if cause, ok := permanentResultCodes[code]; ok {
			return ledger.NewSubmitError(ledger.Permanent, "result code "+code, cause)
		}
	}

	switch {
	case status == http.StatusGatewayTimeout:
		return ledger.NewSubmitError(ledger.Retryable, "submission timed out", errors.ErrLedgerTimeout)
	case status == http.StatusTooManyRequests:
		return ledger.NewSubmitError(ledger.Retryable, "rate limited by ledger", errors.ErrLedgerUnavailable)
	case status >= 500:
		return ledger.NewSubmitError(ledger.Retryable, fmt.Sprintf("ledger returned %d", status), errors.ErrLedgerUnavailable)
	case status >= 400:
		return ledger.NewSubmitError(ledger.Permanent, fmt.Sprintf("ledger rejected with %d: %s", status, p.Detail), nil)
	default:
		return ledger.NewSubmitError(ledger.Retryable, fmt.Sprintf("unexpected status %d", status), nil)
	}
}

// ConfirmTransaction looks up the transaction by hash. A 404 means the
// transaction has not been ingested yet, not that it failed.
func (c *Client) ConfirmTransaction(ctx context.Context, ref string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/transactions/"+url.PathEscape(ref), nil)
	if err != nil {
		return false, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var sr submitResponse
		if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
			return false, err
		}
		if !sr.Successful {
			return false, ledger.NewSubmitError(ledger.Permanent, "transaction applied unsuccessfully", nil)
		}
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("confirm transaction: unexpected status %d", resp.StatusCode)
	}
}

// ProbeConnectivity performs the cheapest available read.
func (c *Client) ProbeConnectivity(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/ledgers?limit=1&order=desc", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("probe: unexpected status %d", resp.StatusCode)
	}
	return nil
}

type accountResponse struct {
	Balances []struct {
		Balance   string `json:"balance"`
		AssetType string `json:"asset_type"`
	} `json:"balances"`
}

// GetBalance returns the account's native balance. An unfunded account
// (404) reports zero rather than an error.
func (c *Client) GetBalance(ctx context.Context, account string) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/accounts/"+url.PathEscape(account), nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return decimal.Zero, nil
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("get balance: unexpected status %d", resp.StatusCode)
	}

	var ar accountResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return decimal.Zero, err
	}
	for _, b := range ar.Balances {
		if b.AssetType == "native" {
			bal, err := decimal.NewFromString(b.Balance)
			if err != nil {
				return decimal.Zero, fmt.Errorf("parse balance %q: %w", b.Balance, err)
			}
			return bal, nil
		}
	}
	return decimal.Zero, nil
}
