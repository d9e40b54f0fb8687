// Package payment holds the provider's transaction status and payment method vocabularies.
package payment

// Status is a provider transaction status. Unknown values pass through unchanged.
type Status string

const (
	StatusPaid           Status = "paid"
	StatusWaitingPayment Status = "waiting_payment"
	StatusRefused        Status = "refused"
	StatusRefunded       Status = "refunded"
	StatusProcessing     Status = "processing"
	StatusAuthorized     Status = "authorized"
	StatusPendingRefund  Status = "pending_refund"
	StatusChargedback    Status = "chargedback"
)

var statusLabels = map[Status]string{
	StatusPaid:           "Pago",
	StatusWaitingPayment: "Aguardando Pagamento",
	StatusRefused:        "Recusado",
	StatusRefunded:       "Reembolsado",
	StatusProcessing:     "Processando",
	StatusAuthorized:     "Autorizado",
	StatusPendingRefund:  "Reembolso Pendente",
	StatusChargedback:    "Chargeback",
}

// Label returns the merchant-facing name of s, or s itself when unknown.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Method is how a transaction was paid.
type Method string

const (
	MethodCreditCard Method = "credit_card"
	MethodDebitCard  Method = "debit_card"
	MethodBoleto     Method = "boleto"
	MethodPix        Method = "pix"
)

var methodLabels = map[Method]string{
	MethodCreditCard: "Cartão de Crédito",
	MethodDebitCard:  "Cartão de Débito",
	MethodBoleto:     "Boleto",
	MethodPix:        "PIX",
}

func (m Method) Label() string {
	if l, ok := methodLabels[m]; ok {
		return l
	}
	return string(m)
}

// CheckoutMethods are the methods the checkout endpoint can forward.
var CheckoutMethods = []Method{MethodCreditCard, MethodPix, MethodBoleto}

// Valid reports whether m can be used at checkout.
func (m Method) Valid() bool {
	for _, v := range CheckoutMethods {
		if m == v {
			return true
		}
	}
	return false
}
