package testutils

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Kyz7/rbac-console/internal/access"
	"github.com/Kyz7/rbac-console/internal/database"
	"github.com/Kyz7/rbac-console/internal/metrics"
	"github.com/Kyz7/rbac-console/internal/models"
	"github.com/Kyz7/rbac-console/internal/server"
	"github.com/Kyz7/rbac-console/internal/storage"
	"github.com/Kyz7/rbac-console/internal/utils"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "Failed to create test database")

	// every connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(database.Models()...)
	require.NoError(t, err, "Failed to migrate test database")

	return db
}

// Logger returns a logger that writes nowhere.
func Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// CreatePermissions inserts the named permissions in order and returns them.
func CreatePermissions(t *testing.T, db *gorm.DB, names ...string) []models.Permission {
	perms := make([]models.Permission, 0, len(names))
	for _, name := range names {
		p := models.Permission{Name: name, Description: name}
		require.NoError(t, db.Create(&p).Error, "Failed to create permission %s", name)
		perms = append(perms, p)
	}
	return perms
}

func CreateRole(t *testing.T, db *gorm.DB, name string, perms ...models.Permission) *models.Role {
	r := &models.Role{Name: name, Description: name + " role", Permissions: perms}
	require.NoError(t, db.Create(r).Error, "Failed to create role %s", name)
	return r
}

func CreateTestUser(t *testing.T, db *gorm.DB, email, password string, roles []models.Role, perms ...models.Permission) *models.User {
	hashedPassword, err := utils.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Name:        "Test User",
		Email:       email,
		Password:    hashedPassword,
		Roles:       roles,
		Permissions: perms,
	}

	err = db.Create(user).Error
	require.NoError(t, err, "Failed to create test user")

	return user
}

// CreateAdmin creates a user holding every console capability through an
// admin role.
func CreateAdmin(t *testing.T, db *gorm.DB, email string) *models.User {
	var perms []models.Permission
	for _, capability := range access.Capabilities {
		var p models.Permission
		err := db.Where(models.Permission{Name: capability}).FirstOrCreate(&p, models.Permission{Name: capability}).Error
		require.NoError(t, err)
		perms = append(perms, p)
	}

	var admin models.Role
	if err := db.Where("name = ?", "admin").First(&admin).Error; err != nil {
		admin = *CreateRole(t, db, "admin", perms...)
	}

	return CreateTestUser(t, db, email, "Secret#1", []models.Role{admin})
}

// TestApp bundles the fiber app with what the tests need to inspect.
type TestApp struct {
	App     *fiber.App
	DB      *gorm.DB
	Storage *storage.Local
}

func SetupTestApp(t *testing.T) *TestApp {
	db := TestDB(t)
	logger := Logger()

	local, err := storage.NewLocal(t.TempDir(), storage.Directories{
		storage.ProfilePicture: "profile-photos",
	}, logger)
	require.NoError(t, err, "Failed to initialize storage")

	app := server.New(server.Deps{
		DB:      db,
		Logger:  logger,
		Storage: local,
		Gate:    access.NewPermissionGate(db, time.Minute, logger),
		Metrics: metrics.New(),
	})

	return &TestApp{App: app, DB: db, Storage: local}
}

func GetAuthToken(t *testing.T, userID uint) string {
	token, err := utils.GenerateJWT(userID)
	assert.NoError(t, err, "Failed to generate test token")
	return token
}

func MakeRequest(app *fiber.App, method, url string, body interface{}, token string) (*httptest.ResponseRecorder, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req := httptest.NewRequest(method, url, bodyReader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()

	resp, err := app.Test(req, -1)
	if err != nil {
		return rec, err
	}

	rec.Code = resp.StatusCode

	io.Copy(rec.Body, resp.Body)
	resp.Body.Close()

	return rec, nil
}

func ParseResponse(t *testing.T, resp *httptest.ResponseRecorder, v interface{}) {
	if resp.Body.Len() == 0 {
		t.Log("Warning: Response body is empty")
		return
	}

	err := json.NewDecoder(resp.Body).Decode(v)
	if err != nil && err != io.EOF {
		t.Logf("Response body: %s", resp.Body.String())
		assert.NoError(t, err, "Failed to parse response")
	}
}

type StandardResponse struct {
	// Status is the HTTP status code, filled in by callers that need it.
	Status  int          `json:"-"`
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    interface{}  `json:"data"`
	Error   *ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

func AssertSuccess(t *testing.T, resp *httptest.ResponseRecorder) {
	var result StandardResponse
	ParseResponse(t, resp, &result)
	assert.True(t, result.Success, "Expected success response")
	assert.Empty(t, result.Error, "Expected no error")
}

func AssertError(t *testing.T, resp *httptest.ResponseRecorder, expectedCode string) {
	var result StandardResponse
	ParseResponse(t, resp, &result)
	assert.False(t, result.Success, "Expected error response")
	assert.NotNil(t, result.Error, "Expected error object")
	assert.Equal(t, expectedCode, result.Error.Code, "Error code mismatch")
}

func MakeMultipartRequestWithFile(app *fiber.App, method, url string, fields map[string]string, files map[string][]byte, token string) (*httptest.ResponseRecorder, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	// Add text fields
	for key, val := range fields {
		writer.WriteField(key, val)
	}

	// Add file fields
	for fieldName, fileContent := range files {
		part, err := writer.CreateFormFile(fieldName, fieldName+".jpg")
		if err != nil {
			return nil, err
		}
		part.Write(fileContent)
	}

	contentType := writer.FormDataContentType()
	writer.Close()

	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Content-Type", contentType)

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	resp, err := app.Test(req, -1)
	if err != nil {
		return rec, err
	}

	rec.Code = resp.StatusCode
	io.Copy(rec.Body, resp.Body)
	resp.Body.Close()

	return rec, nil
}

