package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nbenhadid/foodcart/internal/catalog"
)

// Client talks to the food-delivery backend's REST API. The backend owns the
// catalog and the submitted orders; this service only reads promotions and
// creates/transitions commandes through it.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type promotionEnvelope struct {
	Promotion *promotionDTO `json:"promotion"`
}

type promotionDTO struct {
	Pourcentage int             `json:"pourcentage"`
	DateDebut   time.Time       `json:"dateDebut"`
	DateFin     time.Time       `json:"dateFin"`
	Message     string          `json:"message"`
	Plat        json.RawMessage `json:"plat"`
}

// plat arrives either as a bare id or as the embedded dish object.
func platID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var obj struct {
		ID  string `json:"id"`
		UID string `json:"_id"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	if obj.ID != "" {
		return obj.ID
	}
	return obj.UID
}

func (d *promotionDTO) toPromotion() *catalog.Promotion {
	if d == nil {
		return nil
	}
	return &catalog.Promotion{
		PlatID:     platID(d.Plat),
		Percentage: d.Pourcentage,
		Start:      d.DateDebut,
		End:        d.DateFin,
		Message:    d.Message,
	}
}

// GetPromotion fetches the promotion attached to a dish. Both a 404 and a
// null promotion body mean "no promotion" and return (nil, nil).
func (c *Client) GetPromotion(ctx context.Context, platID string) (*catalog.Promotion, error) {
	var env promotionEnvelope
	err := c.do(ctx, http.MethodGet, "/promotion/plat/"+platID, nil, &env)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return env.Promotion.toPromotion(), nil
}

// ListActivePromotions returns the currently running promotions.
func (c *Client) ListActivePromotions(ctx context.Context) ([]catalog.Promotion, error) {
	var dtos []promotionDTO
	if err := c.do(ctx, http.MethodGet, "/client/promotions/active", nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]catalog.Promotion, 0, len(dtos))
	for i := range dtos {
		out = append(out, *dtos[i].toPromotion())
	}
	return out, nil
}

// CreateCommande submits one restaurant group's order and returns the
// backend's record, including the non-null id the checkout flow keys on.
func (c *Client) CreateCommande(ctx context.Context, req CreateCommandeRequest) (*Commande, error) {
	var cmd Commande
	if err := c.do(ctx, http.MethodPost, "/commandes", req, &cmd); err != nil {
		return nil, err
	}
	if cmd.ID == "" {
		return nil, fmt.Errorf("create commande: backend returned no id")
	}
	return &cmd, nil
}

// DeleteCommande removes a commande whose payment failed or was cancelled,
// so no half-created unpaid order dangles.
func (c *Client) DeleteCommande(ctx context.Context, orderID string) error {
	return c.do(ctx, http.MethodDelete, "/commandes/"+orderID, nil, nil)
}

// PaidCommande flips the commande's payment status to paid after the gateway
// confirmed the payment.
func (c *Client) PaidCommande(ctx context.Context, orderID string) error {
	return c.do(ctx, http.MethodPut, "/commandes/"+orderID+"/paid", nil, nil)
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("backend: unexpected status %d: %s", e.code, e.body)
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.code == http.StatusNotFound
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{code: resp.StatusCode, body: string(bytes.TrimSpace(b))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
