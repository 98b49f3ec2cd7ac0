package httpapi

import (
	"time"

	"github.com/samber/lo"
	"github.com/sfexams/store/internal/domain"
)

type moneyDTO struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func toMoneyDTO(m domain.Money) moneyDTO {
	return moneyDTO{
		Amount:   m.Amount.StringFixed(2),
		Currency: m.Currency.String(),
	}
}

type productDTO struct {
	ID              string   `json:"id"`
	ExamName        string   `json:"exam_name"`
	ExamCode        *string  `json:"exam_code,omitempty"`
	Description     string   `json:"description,omitempty"`
	Price           moneyDTO `json:"price"`
	DifficultyLevel string   `json:"difficulty_level"`
}

func toProductDTO(p domain.Product) productDTO {
	return productDTO{
		ID:              p.ID.String(),
		ExamName:        p.ExamName,
		ExamCode:        p.ExamCode,
		Description:     p.Description,
		Price:           toMoneyDTO(p.Price),
		DifficultyLevel: p.DifficultyLevel,
	}
}

func toSummaryDTO(p domain.ProductSummary) productDTO {
	return productDTO{
		ID:              p.ID.String(),
		ExamName:        p.ExamName,
		ExamCode:        p.ExamCode,
		Price:           toMoneyDTO(p.Price),
		DifficultyLevel: p.DifficultyLevel,
	}
}

type cartItemDTO struct {
	Product  productDTO `json:"product"`
	Quantity int32      `json:"quantity"`
}

type cartDTO struct {
	Items []cartItemDTO `json:"items"`
	Total moneyDTO      `json:"total"`
}

func toCartDTO(c domain.Cart) cartDTO {
	return cartDTO{
		Items: lo.Map(c.Items, func(item domain.CartItem, _ int) cartItemDTO {
			return cartItemDTO{
				Product:  toSummaryDTO(item.Product),
				Quantity: item.Quantity,
			}
		}),
		Total: toMoneyDTO(c.Total()),
	}
}

type orderItemDTO struct {
	Product  productDTO `json:"product"`
	Quantity int32      `json:"quantity"`
	Price    moneyDTO   `json:"price"`
}

type orderDTO struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	PaymentMethod string         `json:"payment_method"`
	Total         moneyDTO       `json:"total"`
	Items         []orderItemDTO `json:"items"`
	CreatedAt     time.Time      `json:"created_at"`
}

func toOrderDTO(o domain.Order) orderDTO {
	return orderDTO{
		ID:            o.ID.String(),
		Status:        string(o.Status),
		PaymentMethod: string(o.PaymentMethod),
		Total:         toMoneyDTO(o.Total),
		Items: lo.Map(o.Items, func(item domain.OrderItem, _ int) orderItemDTO {
			return orderItemDTO{
				Product:  toSummaryDTO(item.Product),
				Quantity: item.Quantity,
				Price:    toMoneyDTO(item.Price),
			}
		}),
		CreatedAt: o.CreatedAt,
	}
}

type downloadDTO struct {
	ID            string     `json:"id"`
	Product       productDTO `json:"product"`
	Token         string     `json:"token"`
	ExpiresAt     time.Time  `json:"expires_at"`
	RemainingDays int        `json:"remaining_days"`
	DownloadCount int32      `json:"download_count"`
	MaxDownloads  int32      `json:"max_downloads"`
	Active        bool       `json:"active"`
}

func toDownloadDTO(d domain.Download, now time.Time) downloadDTO {
	return downloadDTO{
		ID:            d.ID.String(),
		Product:       toSummaryDTO(d.Product),
		Token:         d.Token,
		ExpiresAt:     d.ExpiresAt,
		RemainingDays: d.RemainingDays(now),
		DownloadCount: d.DownloadCount,
		MaxDownloads:  d.MaxDownloads,
		Active:        d.Active,
	}
}

type addCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity int32 `json:"quantity"`
}

type createOrderRequest struct {
	PaymentMethod string `json:"payment_method"`
}

type checkoutSessionDTO struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

type processSuccessRequest struct {
	OrderID       string `json:"order_id"`
	PaymentMethod string `json:"payment_method"`
	ProviderTxID  string `json:"provider_tx_id"`
}
