package quoteservice

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelkitchens/quotekit/pkg/catalog"
	"github.com/panelkitchens/quotekit/pkg/document"
	"github.com/panelkitchens/quotekit/pkg/errors"
	"github.com/panelkitchens/quotekit/pkg/jwt"
	"github.com/panelkitchens/quotekit/pkg/layout"
	"github.com/panelkitchens/quotekit/pkg/logging"
	"github.com/panelkitchens/quotekit/pkg/middleware"
)

const catalogCSV = `מס',הפריט,מחיר יחידה,הערות
,ארונות תחתונים,,
1,ארון 60,"1,250",לבן מט
,משטחים,,
2,משטח קוורץ,לפי מידה,
`

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, f *fixture, tokens *jwt.TokenService) *gin.Engine {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, os.WriteFile(path, []byte(catalogCSV), 0o600))

	r := gin.New()
	r.Use(middleware.ErrorHandlerMiddleware(logging.NewNop()))
	NewHandler(HandlerConfig{
		Service:     f.svc,
		Catalogs:    catalog.NewLoader(4, nil),
		CatalogPath: path,
		Tokens:      tokens,
	}).Register(r)
	return r
}

func send(r http.Handler, method, target string, body interface{}, header map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func pngBase64(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 32, 24))))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func validBody() map[string]interface{} {
	return map[string]interface{}{
		"customer": map[string]interface{}{
			"name":             "דנה כהן",
			"phone":            "050-1234567",
			"date":             "2026-03-09",
			"discount_percent": 10,
		},
		"items": []map[string]interface{}{
			{"name": "ארון 60", "quantity": 1, "unit_price": "1000"},
		},
	}
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func TestCreateQuote_JSON(t *testing.T) {
	f := newFixture()
	r := newTestRouter(t, f, nil)
	body := validBody()
	body["image1"] = pngBase64(t)

	w := send(r, http.MethodPost, "/api/v1/quotes", body, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp QuoteResponse
	decodeData(t, w, &resp)
	assert.Equal(t, w.Header().Get(QuoteIDHeader), resp.QuoteID)
	assert.Equal(t, 3, resp.PageCount)
	assert.True(t, resp.Plan.HasImage1)
	assert.Equal(t, "הצעת_מחיר_דנה כהן_20260309.pdf", resp.FileName)
	assert.Equal(t, "1053", resp.Summary.GrandTotal.String())
}

func TestCreateQuote_PDF(t *testing.T) {
	f := newFixture()
	r := newTestRouter(t, f, nil)

	w := send(r, http.MethodPost, "/api/v1/quotes", validBody(), map[string]string{"Accept": "application/pdf"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get(QuoteIDHeader))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
}

func TestCreateQuote_ValidationErrors(t *testing.T) {
	f := newFixture()
	r := newTestRouter(t, f, nil)

	body := validBody()
	body["customer"] = map[string]interface{}{"phone": "x", "date": "09/03/2026"}
	w := send(r, http.MethodPost, "/api/v1/quotes", body, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp errors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, errors.ErrorCodeValidation, resp.Code)
	assert.Equal(t, "required", resp.Details["customer.name"])
	assert.Equal(t, "phone", resp.Details["customer.phone"])
	assert.Equal(t, "datetime=2006-01-02", resp.Details["customer.date"])

	body = validBody()
	body["customer"].(map[string]interface{})["discount_percent"] = 150
	w = send(r, http.MethodPost, "/api/v1/quotes", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body = validBody()
	body["items"] = []map[string]interface{}{{"product_id": "99", "quantity": 1}}
	w = send(r, http.MethodPost, "/api/v1/quotes", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown product")

	body = validBody()
	body["image2"] = "not base64!"
	w = send(r, http.MethodPost, "/api/v1/quotes", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Zero(t, f.blobs.Uploads())
}

func TestCreateQuote_StorageFailure(t *testing.T) {
	f := newFixture()
	f.blobs.FailUploads = 10
	r := newTestRouter(t, f, nil)

	w := send(r, http.MethodPost, "/api/v1/quotes", validBody(), nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), string(errors.ErrorCodeStorage))
}

func TestQuoteSummary(t *testing.T) {
	f := newFixture()
	r := newTestRouter(t, f, nil)

	body := validBody()
	body["customer"].(map[string]interface{})["contractor_discount"] = 200
	body["customer"].(map[string]interface{})["discount_percent"] = 0
	body["items"] = []map[string]interface{}{
		{"product_id": "1", "quantity": 2},
		{"product_id": "2", "quantity": 1},
		{"name": "התקנה", "quantity": 1, "unit_price": "500"},
	}

	w := send(r, http.MethodPost, "/api/v1/quotes/summary", body, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp SummaryResponse
	decodeData(t, w, &resp)
	assert.Equal(t, "3000", resp.Summary.Subtotal.String())
	assert.Equal(t, "2800", resp.Summary.TaxableBase.String())
	assert.Equal(t, "₪3,276.00", resp.Formatted["grand_total"])
	assert.Equal(t, "-₪200.00", resp.Formatted["contractor_discount"])
	assert.Equal(t, 2, resp.Plan.TotalPages)
	assert.Zero(t, f.blobs.Uploads())
}

func TestQuoteSummary_PlanMatchesDocument(t *testing.T) {
	cfg := document.DefaultConfig()
	cfg.Capacity = layout.Capacity{FirstPage: 30, SubsequentPage: 30}
	f := newFixtureWith(cfg)
	r := newTestRouter(t, f, nil)

	body := validBody()
	rows := make([]map[string]interface{}, 30)
	for i := range rows {
		rows[i] = map[string]interface{}{"name": "ארון", "quantity": 1, "unit_price": "100"}
	}
	body["items"] = rows

	w := send(r, http.MethodPost, "/api/v1/quotes/summary", body, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var sum SummaryResponse
	decodeData(t, w, &sum)
	assert.True(t, sum.Plan.SummaryOverflow)
	assert.Equal(t, 3, sum.Plan.TotalPages)

	w = send(r, http.MethodPost, "/api/v1/quotes", body, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created QuoteResponse
	decodeData(t, w, &created)
	assert.Equal(t, created.Plan, sum.Plan)
	assert.Equal(t, created.PageCount, sum.Plan.TotalPages)
}

func TestQuoteHistory(t *testing.T) {
	f := newFixture()
	r := newTestRouter(t, f, nil)
	require.Equal(t, http.StatusCreated, send(r, http.MethodPost, "/api/v1/quotes", validBody(), nil).Code)

	w := send(r, http.MethodGet, "/api/v1/quotes?phone=050-1234567", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var records []map[string]interface{}
	decodeData(t, w, &records)
	require.Len(t, records, 1)
	assert.Equal(t, "דנה כהן", records[0]["customer_name"])

	w = send(r, http.MethodGet, "/api/v1/quotes", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalog(t *testing.T) {
	f := newFixture()
	r := newTestRouter(t, f, nil)

	w := send(r, http.MethodGet, "/api/v1/catalog", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Categories []string          `json:"categories"`
		Products   []json.RawMessage `json:"products"`
	}
	decodeData(t, w, &resp)
	assert.Equal(t, []string{"ארונות תחתונים", "משטחים"}, resp.Categories)
	assert.Len(t, resp.Products, 2)

	w = send(r, http.MethodGet, "/api/v1/catalog?q="+url.QueryEscape("קוורץ"), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &resp)
	assert.Len(t, resp.Products, 1)

	noCatalog := gin.New()
	noCatalog.Use(middleware.ErrorHandlerMiddleware(logging.NewNop()))
	NewHandler(HandlerConfig{Service: f.svc}).Register(noCatalog)
	assert.Equal(t, http.StatusNotFound, send(noCatalog, http.MethodGet, "/api/v1/catalog", nil, nil).Code)
}

func TestAuthentication(t *testing.T) {
	tokens, err := jwt.NewTokenService("0123456789abcdef0123456789abcdef", time.Hour, logging.NewNop())
	require.NoError(t, err)
	f := newFixture()
	r := newTestRouter(t, f, tokens)

	assert.Equal(t, http.StatusUnauthorized, send(r, http.MethodGet, "/api/v1/catalog", nil, nil).Code)

	sales, err := tokens.Issue("dana", jwt.RoleSales)
	require.NoError(t, err)
	salesAuth := map[string]string{"Authorization": "Bearer " + sales}
	assert.Equal(t, http.StatusOK, send(r, http.MethodGet, "/api/v1/catalog", nil, salesAuth).Code)
	assert.Equal(t, http.StatusForbidden, send(r, http.MethodGet, "/api/v1/quotes?phone=0501234567", nil, salesAuth).Code)

	admin, err := tokens.Issue("noa", jwt.RoleAdmin)
	require.NoError(t, err)
	adminAuth := map[string]string{"Authorization": "Bearer " + admin}
	assert.Equal(t, http.StatusOK, send(r, http.MethodGet, "/api/v1/quotes?phone=0501234567", nil, adminAuth).Code)
}

func TestQuoteDocument(t *testing.T) {
	f := newFixture()
	r := newTestRouter(t, f, nil)

	w := send(r, http.MethodPost, "/api/v1/quotes", validBody(), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	id := w.Header().Get(QuoteIDHeader)

	w = send(r, http.MethodGet, "/api/v1/quotes/"+id+"/pdf", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, id, w.Header().Get(QuoteIDHeader))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	w = send(r, http.MethodGet, "/api/v1/quotes/Q-20260309-00000000/pdf", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = send(r, http.MethodGet, "/api/v1/quotes/nope/pdf", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
