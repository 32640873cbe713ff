package channel

import "encoding/json"

type wooImage struct {
	Src string `json:"src"`
}

type wooProduct struct {
	ID            int64      `json:"id,omitempty"`
	SKU           string     `json:"sku"`
	Name          string     `json:"name,omitempty"`
	Description   string     `json:"description,omitempty"`
	RegularPrice  string     `json:"regular_price,omitempty"`
	Status        string     `json:"status,omitempty"`
	ManageStock   bool       `json:"manage_stock"`
	StockQuantity *int64     `json:"stock_quantity,omitempty"`
	Images        []wooImage `json:"images,omitempty"`
}

type wooBatchRequest struct {
	Create []wooProduct `json:"create,omitempty"`
	Update []wooProduct `json:"update,omitempty"`
}

type wooBatchItem struct {
	ID    int64  `json:"id"`
	SKU   string `json:"sku"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type wooBatchResponse struct {
	Create []wooBatchItem `json:"create"`
	Update []wooBatchItem `json:"update"`
}

type wooAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type wooLineItem struct {
	SKU      string      `json:"sku"`
	Name     string      `json:"name"`
	Quantity int64       `json:"quantity"`
	Price    json.Number `json:"price"`
}

type wooOrder struct {
	ID             int64         `json:"id"`
	Number         string        `json:"number"`
	Status         string        `json:"status"`
	Currency       string        `json:"currency"`
	Total          string        `json:"total"`
	ShippingTotal  string        `json:"shipping_total"`
	DateCreatedGMT string        `json:"date_created_gmt"`
	DatePaidGMT    *string       `json:"date_paid_gmt"`
	Billing        wooAddress    `json:"billing"`
	Shipping       wooAddress    `json:"shipping"`
	LineItems      []wooLineItem `json:"line_items"`
}

type wooError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
