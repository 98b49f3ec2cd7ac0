package repository_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"github.com/sfexams/store/internal/domain"
	"github.com/sfexams/store/internal/port"
	"github.com/sfexams/store/internal/repository"
)

type downloadRepositorySuite struct {
	suite.Suite

	pool     *pgxpool.Pool
	repo     port.DownloadRepository
	products port.ProductRepository
}

func TestDownloadRepositorySuite(t *testing.T) {
	suite.Run(t, new(downloadRepositorySuite))
}

func (suite *downloadRepositorySuite) SetupSuite() {
	ctx := suite.T().Context()

	_, connStr, err := startPostgres(ctx)
	suite.NoError(err)

	suite.pool, err = pgxpool.New(ctx, connStr)
	suite.NoError(err)

	suite.repo = repository.NewDownload(suite.pool)
	suite.products = repository.NewProduct(suite.pool)
}

func (suite *downloadRepositorySuite) TearDownSuite() {
	if suite.pool != nil {
		suite.pool.Close()
	}
}

func (suite *downloadRepositorySuite) insertDownload(d domain.Download) domain.Download {
	id, err := suite.repo.InsertDownload(suite.T().Context(), d)
	suite.Require().NoError(err)
	d.ID = id
	return d
}

func (suite *downloadRepositorySuite) TestRedeem() {
	t := suite.T()
	ctx := t.Context()

	product, err := mustInsertProduct(ctx, suite.products)
	require.NoError(t, err)

	download := suite.insertDownload(
		fakeDownload(gofakeit.UUID(), product.ID, time.Now().Add(15*24*time.Hour)))

	redeemed, err := suite.repo.Redeem(ctx, download.Token)
	require.NoError(t, err)

	assert.Equal(t, download.ID, redeemed.ID)
	assert.Equal(t, int32(1), redeemed.DownloadCount)
	assert.True(t, redeemed.Active)
}

// The limit-th redemption succeeds and deactivates the entitlement; the next
// one is rejected as exhausted, not as unknown.
func (suite *downloadRepositorySuite) TestRedeemExhaustion() {
	t := suite.T()
	ctx := t.Context()

	product, err := mustInsertProduct(ctx, suite.products)
	require.NoError(t, err)

	download := fakeDownload(gofakeit.UUID(), product.ID, time.Now().Add(15*24*time.Hour))
	download.MaxDownloads = 3
	download = suite.insertDownload(download)

	for i := int32(1); i <= 3; i++ {
		redeemed, err := suite.repo.Redeem(ctx, download.Token)
		require.NoError(t, err)
		assert.Equal(t, i, redeemed.DownloadCount)
		assert.Equal(t, i < 3, redeemed.Active)
	}

	_, err = suite.repo.Redeem(ctx, download.Token)
	require.ErrorIs(t, err, domain.ErrLimitExceeded)
}

func (suite *downloadRepositorySuite) TestRedeemMisses() {
	t := suite.T()
	ctx := t.Context()

	product, err := mustInsertProduct(ctx, suite.products)
	require.NoError(t, err)

	expired := suite.insertDownload(
		fakeDownload(gofakeit.UUID(), product.ID, time.Now().Add(-time.Hour)))

	deactivated := suite.insertDownload(
		fakeDownload(gofakeit.UUID(), product.ID, time.Now().Add(time.Hour)))
	require.NoError(t, suite.repo.Deactivate(ctx, deactivated.ID))

	tests := []struct {
		name  string
		token string
	}{
		{name: "unknown token", token: gofakeit.LetterN(64)},
		{name: "expired token", token: expired.Token},
		{name: "deactivated token", token: deactivated.Token},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()

			_, err := suite.repo.Redeem(t.Context(), tt.token)
			require.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

// Concurrent redemptions of the last remaining slots: with r slots left and
// k > r goroutines racing, exactly r succeed.
func (suite *downloadRepositorySuite) TestRedeemConcurrent() {
	t := suite.T()
	ctx := t.Context()

	product, err := mustInsertProduct(ctx, suite.products)
	require.NoError(t, err)

	download := fakeDownload(gofakeit.UUID(), product.ID, time.Now().Add(time.Hour))
	download.MaxDownloads = 2
	download = suite.insertDownload(download)

	const racers = 8
	var successes atomic.Int32

	g, gCtx := errgroup.WithContext(ctx)
	for range racers {
		g.Go(func() error {
			_, err := suite.repo.Redeem(gCtx, download.Token)
			if err == nil {
				successes.Add(1)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(2), successes.Load())
}

func (suite *downloadRepositorySuite) TestListDownloads() {
	t := suite.T()
	ctx := t.Context()

	product1, err := mustInsertProduct(ctx, suite.products)
	require.NoError(t, err)
	product2, err := mustInsertProduct(ctx, suite.products)
	require.NoError(t, err)

	ownerID := gofakeit.UUID()
	expiresAt := time.Now().Add(15 * 24 * time.Hour)

	suite.insertDownload(fakeDownload(ownerID, product1.ID, expiresAt))
	second := suite.insertDownload(fakeDownload(ownerID, product2.ID, expiresAt))

	// Another identity's entitlement must not appear.
	suite.insertDownload(fakeDownload(gofakeit.UUID(), product1.ID, expiresAt))

	downloads, err := suite.repo.ListDownloads(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, downloads, 2)

	// Newest first, product summary joined in.
	assert.Equal(t, second.ID, downloads[0].ID)
	assert.Equal(t, product2.ExamName, downloads[0].Product.ExamName)
	assert.True(t, downloads[0].Product.Price.Amount.Equal(product2.Price.Amount))
}
