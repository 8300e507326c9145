package cart

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	carterrors "github.com/stitchpress/storefront/storefront_service/internal/errors"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const skipIntegrationTests = "STOREFRONT_SVC_SKIP_INTEGRATION_TESTS"

// CartStoreSuite is a test suite for the cart Store implementation.
type CartStoreSuite struct {
	suite.Suite                             // Embedding testify suite for structured testing
	pgContainer *postgres.PostgresContainer // PostgreSQL container for integration tests
	dbPool      *pgxpool.Pool               // PostgreSQL connection pool for integration tests
	store       Store                       //
	logger      *slog.Logger                // Logger for the test suite
	ctx         context.Context             // Context for the test suite, used for cancellation and timeouts
}

// SetupSuite initializes the test suite by setting up a PostgreSQL container,
func (s *CartStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	dbName := "storefront_db"
	dbUser := "user"
	dbPassword := "password"

	// 1. Start a PostgreSQL container with the specified configuration. Wait for the container to be ready.
	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		// Wait for a specific log message indicating the database service is ready.
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
		// Ensure the container is ready to accept connections on the default PostgreSQL port.
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	// 2. Get the connection string from the container
	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")

	// 3. create a new pgxpool instance using the connection string
	s.dbPool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err, "Failed to create pgxpool")

	// 3.1 Ping the database to ensure the connection is established
	for i := range 10 {
		s.logger.Info("Pinging PostgreSQL database", "attempt", i+1)
		err = s.dbPool.Ping(s.ctx)
		if err == nil {
			break
		}
		time.Sleep(time.Second * 2)
	}
	require.NoError(s.T(), err, "Failed to connect to PostgreSQL after retries")

	// 4. Database migration
	// Build path to migrations directory
	wd, _ := os.Getwd()
	migrationsPath := filepath.Join(wd, "../../migrations")
	sourceURL := "file://" + migrationsPath
	// Create a new migrate instance with the source URL and connection string
	m, err := migrate.New(sourceURL, connStr)
	require.NoError(s.T(), err, "Failed to create migrate instance")
	// Apply all available migrations
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		_, _ = m.Close()
		require.NoError(s.T(), err, "Failed to apply migrations")
	}
	s.logger.Info("Migrations applied for integration tests")

	s.store = NewPgStore(s.dbPool)
	s.logger.Info("Initialization complete for CartStoreSuite")
}

// TearDownSuite cleans up resources after all tests in the suite have run.
func (s *CartStoreSuite) TearDownSuite() {
	s.logger.Info("Tearing down suite...")
	if s.dbPool != nil {
		s.dbPool.Close()
		s.logger.Info("DB pool closed.")
	}
	if s.pgContainer != nil {
		s.logger.Info("Terminating PostgreSQL container...")
		err := s.pgContainer.Terminate(s.ctx)
		if err != nil {
			s.logger.Warn("failed to terminate PostgreSQL container", "error", err)
		} else {
			s.logger.Info("PostgreSQL container terminated.")
		}
	}
}

// SetupTest prepares the database for each test by truncating the cart tables.
func (s *CartStoreSuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE cart_items, products RESTART IDENTITY CASCADE")
	require.NoError(s.T(), err, "Failed to truncate cart tables")
}

// TestCartStoreIntegration runs the cart Store integration tests.
func TestCartStoreIntegration(t *testing.T) {
	// Skip integration tests if the environment variable is set
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	// Run the test suite
	suite.Run(t, new(CartStoreSuite))
}

// createTestProduct is a helper function to insert a product row for testing purposes.
func (s *CartStoreSuite) createTestProduct(name string, price float64) uuid.UUID {
	s.T().Helper()
	var id uuid.UUID
	err := s.dbPool.QueryRow(s.ctx,
		"INSERT INTO products (name, price, image_url) VALUES ($1, $2, $3) RETURNING id",
		name, price, "https://cdn.example.com/"+name+".png").Scan(&id)
	require.NoError(s.T(), err, "createTestProduct helper failed to insert product")
	return id
}

func (s *CartStoreSuite) TestUpsertAndList() {
	s.SetupTest()
	// given
	userID := uuid.New()
	productID := s.createTestProduct("classic-tee", 20.00)

	// when
	err := s.store.Upsert(s.ctx, UpsertParams{UserID: userID, ProductID: productID, Size: "M", Quantity: 2}, Overwrite)

	// then
	require.NoError(s.T(), err, "Upsert should not return an error")
	lines, err := s.store.ListByUser(s.ctx, userID)
	require.NoError(s.T(), err, "ListByUser should not return an error")
	require.Len(s.T(), lines, 1, "Should list one cart line")
	require.NotZero(s.T(), lines[0].ID, "Line ID should be assigned")
	require.Equal(s.T(), productID, lines[0].ProductID)
	require.Equal(s.T(), "M", lines[0].Size)
	require.Equal(s.T(), int32(2), lines[0].Quantity)
	require.Equal(s.T(), "classic-tee", lines[0].Product.Name)
	require.InDelta(s.T(), 20.00, lines[0].Product.Price, 0.0001)
}

func (s *CartStoreSuite) TestUpsert_ConflictPolicies() {
	testCases := []struct {
		name             string
		policy           ConflictPolicy
		expectedQuantity int32
	}{
		{name: "Overwrite replaces the quantity", policy: Overwrite, expectedQuantity: 3},
		{name: "Accumulate adds to the quantity", policy: Accumulate, expectedQuantity: 5},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.SetupTest()
			// given
			userID := uuid.New()
			productID := s.createTestProduct("classic-tee", 20.00)
			require.NoError(s.T(), s.store.Upsert(s.ctx, UpsertParams{UserID: userID, ProductID: productID, Size: "M", Quantity: 2}, tc.policy))

			// when
			err := s.store.Upsert(s.ctx, UpsertParams{UserID: userID, ProductID: productID, Size: "M", Quantity: 3}, tc.policy)

			// then
			require.NoError(s.T(), err, "Second upsert should not return an error")
			lines, err := s.store.ListByUser(s.ctx, userID)
			require.NoError(s.T(), err)
			require.Len(s.T(), lines, 1, "Conflict key should hold a single line per (user, product, size)")
			require.Equal(s.T(), tc.expectedQuantity, lines[0].Quantity)
		})
	}
}

func (s *CartStoreSuite) TestUpsert_DifferentSizes() {
	s.SetupTest()
	// given
	userID := uuid.New()
	productID := s.createTestProduct("classic-tee", 20.00)

	// when
	require.NoError(s.T(), s.store.Upsert(s.ctx, UpsertParams{UserID: userID, ProductID: productID, Size: "M", Quantity: 1}, Overwrite))
	require.NoError(s.T(), s.store.Upsert(s.ctx, UpsertParams{UserID: userID, ProductID: productID, Size: "L", Quantity: 1}, Overwrite))

	// then
	lines, err := s.store.ListByUser(s.ctx, userID)
	require.NoError(s.T(), err)
	require.Len(s.T(), lines, 2, "Each size should be its own line")
}

func (s *CartStoreSuite) TestUpdateQuantity() {
	s.SetupTest()
	// given
	userID := uuid.New()
	productID := s.createTestProduct("classic-tee", 20.00)
	require.NoError(s.T(), s.store.Upsert(s.ctx, UpsertParams{UserID: userID, ProductID: productID, Size: "M", Quantity: 1}, Overwrite))
	lines, err := s.store.ListByUser(s.ctx, userID)
	require.NoError(s.T(), err)
	require.Len(s.T(), lines, 1)

	// when
	err = s.store.UpdateQuantity(s.ctx, userID, lines[0].ID, 4)

	// then
	require.NoError(s.T(), err, "UpdateQuantity should not return an error")
	lines, err = s.store.ListByUser(s.ctx, userID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), int32(4), lines[0].Quantity)
}

func (s *CartStoreSuite) TestUpdateQuantity_WrongUser() {
	s.SetupTest()
	// given
	userID := uuid.New()
	productID := s.createTestProduct("classic-tee", 20.00)
	require.NoError(s.T(), s.store.Upsert(s.ctx, UpsertParams{UserID: userID, ProductID: productID, Size: "M", Quantity: 1}, Overwrite))
	lines, err := s.store.ListByUser(s.ctx, userID)
	require.NoError(s.T(), err)

	// when
	err = s.store.UpdateQuantity(s.ctx, uuid.New(), lines[0].ID, 4)

	// then
	require.ErrorIs(s.T(), err, carterrors.ErrCartLineNotFound, "Another user's line should be invisible")
}

func (s *CartStoreSuite) TestDelete() {
	s.SetupTest()
	// given
	userID := uuid.New()
	productID := s.createTestProduct("classic-tee", 20.00)
	require.NoError(s.T(), s.store.Upsert(s.ctx, UpsertParams{UserID: userID, ProductID: productID, Size: "M", Quantity: 1}, Overwrite))
	lines, err := s.store.ListByUser(s.ctx, userID)
	require.NoError(s.T(), err)

	// when
	err = s.store.Delete(s.ctx, userID, lines[0].ID)

	// then
	require.NoError(s.T(), err, "Delete should not return an error")
	lines, err = s.store.ListByUser(s.ctx, userID)
	require.NoError(s.T(), err)
	require.Empty(s.T(), lines, "Cart should be empty after delete")
}

func (s *CartStoreSuite) TestDelete_NotFound() {
	s.SetupTest()
	// given (no lines created)

	// when
	err := s.store.Delete(s.ctx, uuid.New(), uuid.New())

	// then
	require.ErrorIs(s.T(), err, carterrors.ErrCartLineNotFound, "Expected ErrCartLineNotFound for non-existent line")
}

func (s *CartStoreSuite) TestDeleteByUser() {
	s.SetupTest()
	// given
	userID := uuid.New()
	otherUserID := uuid.New()
	productID := s.createTestProduct("classic-tee", 20.00)
	require.NoError(s.T(), s.store.Upsert(s.ctx, UpsertParams{UserID: userID, ProductID: productID, Size: "M", Quantity: 1}, Overwrite))
	require.NoError(s.T(), s.store.Upsert(s.ctx, UpsertParams{UserID: userID, ProductID: productID, Size: "L", Quantity: 1}, Overwrite))
	require.NoError(s.T(), s.store.Upsert(s.ctx, UpsertParams{UserID: otherUserID, ProductID: productID, Size: "M", Quantity: 1}, Overwrite))

	// when
	err := s.store.DeleteByUser(s.ctx, userID)

	// then
	require.NoError(s.T(), err, "DeleteByUser should not return an error")
	lines, err := s.store.ListByUser(s.ctx, userID)
	require.NoError(s.T(), err)
	require.Empty(s.T(), lines, "User's cart should be empty")
	otherLines, err := s.store.ListByUser(s.ctx, otherUserID)
	require.NoError(s.T(), err)
	require.Len(s.T(), otherLines, 1, "Other user's cart should be untouched")
}
