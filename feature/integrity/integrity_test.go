package integrity

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"rcconf-manager/core/storage/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// setupMockDB creates a mock GORM DB for testing.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

type staticFiles []string

func (s staticFiles) Names() []string { return s }

func emptyChan() <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo)
	close(ch)
	return ch
}

func TestService_Disabled(t *testing.T) {
	svc := NewService(nil, "etc", nil, nil, zap.NewNop())
	ctx := context.Background()

	report, err := svc.CheckDefaults()
	require.NoError(t, err)
	assert.True(t, report.Valid)

	_, err = svc.CheckDatabase()
	assert.ErrorIs(t, err, ErrDatabaseDisabled)
	_, err = svc.CheckStorage(ctx)
	assert.ErrorIs(t, err, ErrStorageDisabled)
	assert.ErrorIs(t, svc.FixStorage(ctx, []string{"generated"}), ErrStorageDisabled)
	_, err = svc.CheckPublished(ctx)
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestService_Storage(t *testing.T) {
	mockClient := new(mocks.Client)
	svc := NewService(mockClient, "etc", nil, staticFiles{"motd", "rc.conf"}, zap.NewNop())

	mockClient.On("BucketExists", mock.Anything, "etc").Return(true, nil)
	mockClient.On("ListObjects", mock.Anything, "etc", mock.Anything).Return(emptyChan())
	mockClient.On("PutObject", mock.Anything, "etc", "generated/", mock.Anything, int64(0), mock.Anything).Return(minio.UploadInfo{}, nil)

	missing, err := svc.CheckStorage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"generated"}, missing)
	assert.NoError(t, svc.FixStorage(context.Background(), missing))

	unpublished, err := svc.CheckPublished(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"motd", "rc.conf"}, unpublished)
}

func setupTestApp(t *testing.T) (*fiber.App, *mocks.Client, sqlmock.Sqlmock) {
	app := fiber.New()
	mockClient := new(mocks.Client)
	db, sqlMock := setupMockDB(t)

	feature := NewFeature(NewService(mockClient, "etc", db, nil, zap.NewNop()))
	assert.Equal(t, "integrity", feature.Name())
	assert.True(t, feature.IsEnabled())
	require.NoError(t, feature.Load(app))
	return app, mockClient, sqlMock
}

func TestHandleDefaultsCheck(t *testing.T) {
	app, _, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/defaults", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["valid"])
}

func TestHandleStorageCheck(t *testing.T) {
	app, mockClient, _ := setupTestApp(t)

	mockClient.On("BucketExists", mock.Anything, "etc").Return(true, nil)
	mockClient.On("ListObjects", mock.Anything, "etc", mock.Anything).Return(emptyChan())

	t.Run("Check", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/integrity/storage", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "checked", body["status"])
		assert.NotEmpty(t, body["missing"])
	})

	t.Run("Fix", func(t *testing.T) {
		mockClient.On("PutObject", mock.Anything, "etc", "generated/", mock.Anything, int64(0), mock.Anything).Return(minio.UploadInfo{}, nil)

		resp, err := app.Test(httptest.NewRequest("GET", "/integrity/storage?fix=true", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "fixed", body["status"])
	})
}

func TestHandleDatabaseCheck(t *testing.T) {
	app, _, sqlMock := setupTestApp(t)

	rows := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
		AddRow("name", "varchar(128)", "NO", "PRI", nil, "").
		AddRow("value", "text", "NO", "", nil, "").
		AddRow("updated_at", "datetime(3)", "YES", "", nil, "")
	sqlMock.ExpectQuery("SHOW COLUMNS FROM").WillReturnRows(rows)

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/database", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["matched"])
}

func TestHandleIntegrityCheck_Skipped(t *testing.T) {
	app := fiber.New()
	NewHandler(NewService(nil, "etc", nil, nil, zap.NewNop())).RegisterRoutes(app)

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["defaults"]["status"])
	assert.Equal(t, "skipped", body["database"]["status"])
	assert.Equal(t, "skipped", body["storage"]["status"])
	assert.Equal(t, "skipped", body["published"]["status"])

	resp, err = app.Test(httptest.NewRequest("GET", "/integrity/storage", nil))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}
