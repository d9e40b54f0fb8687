package httppresentation

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	appCheckout "github.com/Zhima-Mochi/merchant-dashboard/internal/application/checkout"
	appDashboard "github.com/Zhima-Mochi/merchant-dashboard/internal/application/dashboard"
	domainCheckout "github.com/Zhima-Mochi/merchant-dashboard/internal/domain/checkout"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/transaction"
	"github.com/goccy/go-json"
)

const (
	msgNotConfigured   = "Chave da API não configurada"
	msgInvalid         = "Dados inválidos"
	msgNotFound        = "Cliente não encontrado"
	msgProviderDefault = "Erro ao comunicar com o provedor"
	msgTimeout         = "Tempo de resposta do provedor esgotado"
	msgInternal        = "Erro interno"

	msgCheckoutNotFound   = "Checkout não encontrado"
	msgCheckoutInProgress = "Pagamento em processamento para esta chave de idempotência"
)

var errBadRequest = errors.New("invalid parameter")

func badRequest(param string, err error) error {
	return fmt.Errorf("%w %s: %w", errBadRequest, param, err)
}

type errorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeRaw sends a provider body exactly as it was received.
func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeMessage(w http.ResponseWriter, status int, msg, details string) {
	resp := errorResponse{Error: msg}
	if details != "" {
		resp.Details = details
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps application errors to a status and a user-facing message.
// providerMsg is the message shown when the provider call failed.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, providerMsg string) {
	if providerMsg == "" {
		providerMsg = msgProviderDefault
	}
	var ve *domainCheckout.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalid, Details: ve.Problems})
	case errors.Is(err, errBadRequest), errors.Is(err, domainCheckout.ErrInvalid):
		writeMessage(w, http.StatusBadRequest, msgInvalid, err.Error())
	case errors.Is(err, transaction.ErrCustomerNotFound):
		writeMessage(w, http.StatusNotFound, msgNotFound, "")
	case errors.Is(err, appCheckout.ErrInProgress), errors.Is(err, appCheckout.ErrConflict):
		writeMessage(w, http.StatusConflict, msgCheckoutInProgress, "")
	case errors.Is(err, appDashboard.ErrNotConfigured), errors.Is(err, appCheckout.ErrNotConfigured):
		writeMessage(w, http.StatusServiceUnavailable, msgNotConfigured, "")
	case errors.Is(err, appCheckout.ErrProvider):
		logFailure(r, http.StatusBadGateway, err)
		writeMessage(w, http.StatusBadGateway, providerMsg, "")
	case errors.Is(err, appDashboard.ErrProvider):
		logFailure(r, http.StatusBadGateway, err)
		writeMessage(w, http.StatusBadGateway, providerMsg, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		logFailure(r, http.StatusGatewayTimeout, err)
		writeMessage(w, http.StatusGatewayTimeout, msgTimeout, "")
	default:
		logFailure(r, http.StatusInternalServerError, err)
		writeMessage(w, http.StatusInternalServerError, msgInternal, err.Error())
	}
}
