package controller

import (
	"net/http"

	"github.com/paypulse/walletsync/internal/ledger"
)

// WalletController proxies wallet-level reads against the ledger.
type WalletController struct {
	client  ledger.Client
	account string
}

func NewWalletController(client ledger.Client, account string) *WalletController {
	return &WalletController{client: client, account: account}
}

// Balance handles GET /api/v1/wallet/balance
func (h *WalletController) Balance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.client.GetBalance(r.Context(), h.account)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{
		Account: h.account,
		Balance: balance.String(),
	})
}
