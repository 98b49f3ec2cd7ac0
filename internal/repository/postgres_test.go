package repository_test

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/text/currency"

	"github.com/sfexams/store/internal/domain"
	"github.com/sfexams/store/internal/port"
	"github.com/sfexams/store/internal/repository"
)

// startPostgres brings up a throwaway database with the full schema applied.
func startPostgres(ctx context.Context) (testcontainers.Container, string, error) {
	container, err := tcpostgres.Run(ctx, "postgres:17-alpine",
		tcpostgres.WithDatabase("store"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	if err != nil {
		return nil, "", fmt.Errorf("tcpostgres.Run: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return container, "", fmt.Errorf("container.ConnectionString: %w", err)
	}

	if err := repository.RunMigrations(connStr); err != nil {
		return container, "", fmt.Errorf("repository.RunMigrations: %w", err)
	}

	return container, connStr, nil
}

func fakeProduct() domain.Product {
	return domain.Product{
		ExamName: gofakeit.JobTitle() + " " + gofakeit.LetterN(4),
		ExamCode: lo.ToPtr(gofakeit.LetterN(3) + "-" + gofakeit.DigitN(3)),
		Price: domain.Money{
			Amount:   decimal.NewFromFloat(gofakeit.Price(10, 200)),
			Currency: currency.USD,
		},
		DifficultyLevel: gofakeit.RandomString([]string{"beginner", "intermediate", "advanced"}),
	}
}

// mustInsertProduct seeds the catalog and returns the stored product.
func mustInsertProduct(ctx context.Context, products port.ProductRepository) (domain.Product, error) {
	p := fakeProduct()

	id, err := products.InsertProduct(ctx, p)
	if err != nil {
		return p, fmt.Errorf("products.InsertProduct: %w", err)
	}
	p.ID = id

	return p, nil
}

func fakeOrder(products ...domain.Product) domain.Order {
	items := lo.Map(products, func(p domain.Product, _ int) domain.OrderItem {
		return domain.OrderItem{
			ProductID: p.ID,
			Quantity:  int32(gofakeit.Number(1, 3)),
			Price:     p.Price,
			Product:   p.Summary(),
		}
	})

	total := domain.ZeroMoney(currency.USD)
	for _, item := range items {
		total = total.Add(item.Price.MulQuantity(item.Quantity))
	}

	return domain.Order{
		OwnerID:       gofakeit.UUID(),
		Total:         total,
		Items:         items,
		Status:        domain.OrderStatusPending,
		PaymentMethod: domain.PaymentMethodStripe,
	}
}

func fakeDownload(ownerID string, productID uuid.UUID, expiresAt time.Time) domain.Download {
	return domain.Download{
		OwnerID:      ownerID,
		ProductID:    productID,
		Token:        gofakeit.LetterN(64),
		ExpiresAt:    expiresAt,
		MaxDownloads: 10,
		Active:       true,
	}
}
