package payment

import "encoding/json"

type paypalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalLink struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method,omitempty"`
}

type paypalTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type paypalPurchaseUnitRequest struct {
	ReferenceID string       `json:"reference_id"`
	CustomID    string       `json:"custom_id,omitempty"`
	InvoiceID   string       `json:"invoice_id,omitempty"`
	Description string       `json:"description,omitempty"`
	Amount      paypalAmount `json:"amount"`
}

type paypalApplicationContext struct {
	ReturnURL          string `json:"return_url,omitempty"`
	CancelURL          string `json:"cancel_url,omitempty"`
	UserAction         string `json:"user_action,omitempty"`
	ShippingPreference string `json:"shipping_preference,omitempty"`
}

type paypalCreateOrderRequest struct {
	Intent             string                      `json:"intent"`
	PurchaseUnits      []paypalPurchaseUnitRequest `json:"purchase_units"`
	ApplicationContext *paypalApplicationContext   `json:"application_context,omitempty"`
}

type paypalCapture struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	Amount paypalAmount `json:"amount"`
}

type paypalOrder struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	Links         []paypalLink `json:"links"`
	PurchaseUnits []struct {
		ReferenceID string `json:"reference_id"`
		Payments    struct {
			Captures []paypalCapture `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

// firstCapture returns the first capture of the order, if any
func (o *paypalOrder) firstCapture() *paypalCapture {
	for i := range o.PurchaseUnits {
		if len(o.PurchaseUnits[i].Payments.Captures) > 0 {
			return &o.PurchaseUnits[i].Payments.Captures[0]
		}
	}
	return nil
}

// link returns the href of the first link with one of the given relations
func (o *paypalOrder) link(rels ...string) string {
	for _, rel := range rels {
		for _, l := range o.Links {
			if l.Rel == rel {
				return l.Href
			}
		}
	}
	return ""
}

type paypalRefundRequest struct {
	Amount paypalAmount `json:"amount"`
}

type paypalRefund struct {
	ID                     string `json:"id"`
	Status                 string `json:"status"`
	SellerPayableBreakdown struct {
		TotalRefundedAmount *paypalAmount `json:"total_refunded_amount"`
	} `json:"seller_payable_breakdown"`
}

type paypalErrorResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	DebugID string `json:"debug_id"`
	Error   string `json:"error"`
	Details []struct {
		Issue       string `json:"issue"`
		Description string `json:"description"`
	} `json:"details"`
}

type paypalVerifySignatureRequest struct {
	AuthAlgo         string          `json:"auth_algo"`
	CertURL          string          `json:"cert_url"`
	TransmissionID   string          `json:"transmission_id"`
	TransmissionSig  string          `json:"transmission_sig"`
	TransmissionTime string          `json:"transmission_time"`
	WebhookID        string          `json:"webhook_id"`
	WebhookEvent     json.RawMessage `json:"webhook_event"`
}

type paypalVerifySignatureResponse struct {
	VerificationStatus string `json:"verification_status"`
}

type paypalWebhookEvent struct {
	ID           string          `json:"id"`
	EventType    string          `json:"event_type"`
	ResourceType string          `json:"resource_type"`
	Resource     json.RawMessage `json:"resource"`
}

// paypalWebhookResource covers the capture and refund resources
type paypalWebhookResource struct {
	ID                string       `json:"id"`
	Status            string       `json:"status"`
	Amount            paypalAmount `json:"amount"`
	SupplementaryData struct {
		RelatedIDs struct {
			OrderID string `json:"order_id"`
		} `json:"related_ids"`
	} `json:"supplementary_data"`
	SellerPayableBreakdown struct {
		TotalRefundedAmount *paypalAmount `json:"total_refunded_amount"`
	} `json:"seller_payable_breakdown"`
	StatusDetails struct {
		Reason string `json:"reason"`
	} `json:"status_details"`
}
