// Package orderapi talks to the remote store backend that owns orders, pricing
// and admin authentication. Every endpoint takes a POST of {"data": {...}} and
// answers with an "error" flag that must read "false" on success.
package orderapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"crackerstore/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the production backend.
const DefaultBaseURL = "https://themahadevgroupv2back.onrender.com/api/mahadev"

// Config holds the backend location.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is the HTTP client for the store backend.
type Client struct {
	baseURL string
	timeout time.Duration
}

// NewClient creates a new Client.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{baseURL: base, timeout: timeout}
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	UserName   string
	UserMobile string
	CouponCode string
	CartItems  []models.OrderItem
}

// ActionResult is returned by accept/reject.
type ActionResult struct {
	OrderID string `json:"order_id"`
	Message string `json:"message"`
}

// LoginResult carries the backend-issued admin credentials.
type LoginResult struct {
	Username    string
	Credentials models.AdminCredentials
}

type requestBody struct {
	Data interface{} `json:"data"`
}

type wireCartItem struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Price json.Number `json:"price"`
	Qty   int         `json:"qty"`
}

type adminAction struct {
	AdminID   string `json:"admin_id"`
	AuthToken string `json:"authtoken"`
	OrderID   string `json:"order_id,omitempty"`
}

// post sends data to endpoint and returns the raw body once the error flag
// reads "false". requireFlag=false tolerates bodies without an error field.
func (c *Client) post(ctx context.Context, endpoint, fallback string, data interface{}, requireFlag bool) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.Post(c.baseURL + "/" + endpoint)
	agent.JSON(requestBody{Data: data})
	agent.Timeout(timeout)

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		log.Error().Err(errs[0]).Str("endpoint", endpoint).Msg("order api request failed")
		return nil, fmt.Errorf("%s: %w: %v", endpoint, ErrRequestFailed, errs[0])
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if status < 200 || status > 299 {
			return nil, &APIError{Op: endpoint, Status: status, Message: fallback}
		}
		return nil, fmt.Errorf("%s: %w: invalid response body: %v", endpoint, ErrRequestFailed, err)
	}

	if status < 200 || status > 299 {
		msg := env.Message
		if msg == "" {
			msg = fallback
		}
		return nil, &APIError{Op: endpoint, Status: status, Message: msg, Details: env.Details}
	}

	if env.Error.ok || (!requireFlag && !env.Error.present) {
		return body, nil
	}

	if strings.EqualFold(strings.TrimSpace(env.Message), "logout") {
		return nil, &APIError{Op: endpoint, Status: status, Message: "Logout", Err: ErrSessionExpired}
	}
	msg := env.Message
	if msg == "" {
		msg = fallback
	}
	return nil, &APIError{Op: endpoint, Status: status, Message: msg, Details: env.Details}
}

// CreateOrder submits a checkout and returns the backend's order summary.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.OrderSummary, error) {
	items := make([]wireCartItem, 0, len(req.CartItems))
	for _, it := range req.CartItems {
		qty := it.Qty
		if qty < 1 {
			qty = 1
		}
		items = append(items, wireCartItem{
			ID:    it.ID,
			Name:  it.Name,
			Price: json.Number(it.Price.String()),
			Qty:   qty,
		})
	}

	body, err := c.post(ctx, "create_order", "Failed to create order", map[string]interface{}{
		"user_name":   req.UserName,
		"user_mobile": req.UserMobile,
		"coupon_code": req.CouponCode,
		"cart_items":  items,
	}, true)
	if err != nil {
		return nil, err
	}

	var wrapper struct {
		OrderSummary json.RawMessage `json:"order_summary"`
		Data         json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("create_order: %w: %v", ErrRequestFailed, err)
	}
	payload := body
	switch {
	case isObject(wrapper.OrderSummary):
		payload = wrapper.OrderSummary
	case isObject(wrapper.Data):
		payload = wrapper.Data
	}

	var summary wireSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, fmt.Errorf("create_order: %w: invalid order summary: %v", ErrRequestFailed, err)
	}
	return summary.toModel(), nil
}

func isObject(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return strings.HasPrefix(s, "{")
}

// ListOrders loads every order visible to the admin.
func (c *Client) ListOrders(ctx context.Context, creds models.AdminCredentials) (*models.OrderList, error) {
	if !creds.Complete() {
		return nil, ErrMissingCredentials
	}

	body, err := c.post(ctx, "load_orders", "Failed to load orders", adminAction{
		AdminID:   creds.AdminID,
		AuthToken: creds.AuthToken,
	}, true)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Orders  []wireOrder            `json:"orders"`
		Summary map[string]interface{} `json:"summary"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("load_orders: %w: %v", ErrRequestFailed, err)
	}

	list := &models.OrderList{
		Orders:  make([]models.Order, 0, len(resp.Orders)),
		Summary: resp.Summary,
	}
	for _, o := range resp.Orders {
		list.Orders = append(list.Orders, o.toModel())
	}
	return list, nil
}

// AcceptOrder asks the backend to complete an order and deduct stock. A stock
// shortage comes back as an *APIError with Details.
func (c *Client) AcceptOrder(ctx context.Context, creds models.AdminCredentials, orderID string) (*ActionResult, error) {
	return c.orderAction(ctx, "accept_order", "Failed to accept order", creds, orderID)
}

// RejectOrder asks the backend to reject an order. Stock is untouched.
func (c *Client) RejectOrder(ctx context.Context, creds models.AdminCredentials, orderID string) (*ActionResult, error) {
	return c.orderAction(ctx, "reject_order", "Failed to reject order", creds, orderID)
}

func (c *Client) orderAction(ctx context.Context, endpoint, fallback string, creds models.AdminCredentials, orderID string) (*ActionResult, error) {
	if !creds.Complete() {
		return nil, ErrMissingCredentials
	}

	body, err := c.post(ctx, endpoint, fallback, adminAction{
		AdminID:   creds.AdminID,
		AuthToken: creds.AuthToken,
		OrderID:   orderID,
	}, true)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", endpoint, ErrRequestFailed, err)
	}
	return &ActionResult{OrderID: string(env.OrderID), Message: env.Message}, nil
}

// Login exchanges admin username and password for backend credentials.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	body, err := c.post(ctx, "login", "Login failed", map[string]string{
		"username": username,
		"password": password,
	}, true)
	if err != nil {
		return nil, err
	}

	var resp struct {
		AdminToken flexString `json:"admin_token"`
		AdminData  *struct {
			ID       flexString `json:"id"`
			Username string     `json:"username"`
		} `json:"admin_data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("login: %w: %v", ErrRequestFailed, err)
	}
	if resp.AdminToken == "" || resp.AdminData == nil || resp.AdminData.ID == "" {
		return nil, &APIError{Op: "login", Message: "Invalid login response: missing admin_token or admin_data"}
	}

	name := resp.AdminData.Username
	if name == "" {
		name = username
	}
	return &LoginResult{
		Username: name,
		Credentials: models.AdminCredentials{
			AdminID:   string(resp.AdminData.ID),
			AuthToken: string(resp.AdminToken),
		},
	}, nil
}

// HomeProducts loads the public catalogue.
func (c *Client) HomeProducts(ctx context.Context) ([]models.Product, error) {
	body, err := c.post(ctx, "home_products", "Failed to load products", struct{}{}, false)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Products []wireProduct `json:"products"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("home_products: %w: %v", ErrRequestFailed, err)
	}

	products := make([]models.Product, 0, len(resp.Products))
	for _, p := range resp.Products {
		if p.ID == "" {
			continue
		}
		products = append(products, p.toModel())
	}
	return products, nil
}
