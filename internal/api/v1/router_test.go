package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/spiritgear-io/spiritgear/internal/auth"
	"github.com/spiritgear-io/spiritgear/internal/comms"
	"github.com/spiritgear-io/spiritgear/internal/database"
	"github.com/spiritgear-io/spiritgear/internal/mail/inbound"
	"github.com/spiritgear-io/spiritgear/internal/mail/outbound"
	"github.com/spiritgear-io/spiritgear/internal/models"
	"github.com/spiritgear-io/spiritgear/internal/repository"
	"github.com/spiritgear-io/spiritgear/internal/service"
)

const testInboundDomain = "mail.spiritgear.example"

type apiFixture struct {
	engine *gin.Engine
	db     *sqlx.DB
	mailer *captureMailer
	jwt    *auth.JWTManager
}

type captureMailer struct {
	sent []*outbound.Message
}

func (m *captureMailer) Send(_ context.Context, msg *outbound.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	storage, err := service.NewLocalStorageService(t.TempDir())
	require.NoError(t, err)

	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	commRepo := repository.NewCommunicationRepository(db)
	proofRepo := repository.NewProofRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	mailer := &captureMailer{}
	sender := comms.NewSender(commRepo, mailer, testInboundDomain, nil)
	normalizer := inbound.NewNormalizer(storage)
	recorder := comms.NewRecorder(normalizer, commRepo, orderRepo)

	orderSvc := service.NewOrderService(orderRepo, productRepo)
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	engine := gin.New()
	api := NewAPIRouter(engine, Deps{
		Catalog:    service.NewCatalogService(productRepo),
		Orders:     orderSvc,
		Proofs:     service.NewProofService(proofRepo, orderSvc, storage, sender),
		Reports:    service.NewReportService(orderRepo, commRepo, proofRepo),
		Storage:    storage,
		CommRepo:   commRepo,
		Admins:     adminRepo,
		Recorder:   recorder,
		Sender:     sender,
		JWTManager: jwtManager,
	})
	api.SetupRoutes()

	return &apiFixture{engine: engine, db: db, mailer: mailer, jwt: jwtManager}
}

func (f *apiFixture) seedAdmin(t *testing.T) (*models.AdminUser, string) {
	t.Helper()
	hash, err := auth.HashPassword("sup3r-secret")
	require.NoError(t, err)
	admin := &models.AdminUser{
		ID:           uuid.NewString(),
		Email:        "staff@spiritgear.example",
		Name:         "Staff Member",
		PasswordHash: hash,
		Role:         "admin",
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repository.NewAdminRepository(f.db).Create(context.Background(), admin))
	token, err := f.jwt.GenerateToken(admin.ID, admin.Email, admin.Role)
	require.NoError(t, err)
	return admin, token
}

func (f *apiFixture) seedOrder(t *testing.T) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:           uuid.NewString(),
		OrderNumber:  "SG-260831-APITST",
		SchoolName:   "Lincoln High",
		ContactName:  "Dana Reyes",
		ContactEmail: "dana@example.com",
		Status:       models.OrderPending,
		TotalCents:   14250,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repository.NewOrderRepository(f.db).Create(context.Background(), order))
	return order
}

func (f *apiFixture) doJSON(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	w := f.doJSON(t, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	f := newAPIFixture(t)
	w := f.doJSON(t, http.MethodGet, "/api/v1/orders", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
