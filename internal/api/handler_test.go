package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/MorseWayne/players_club/internal/cache"
	"github.com/MorseWayne/players_club/internal/domain"
	"github.com/MorseWayne/players_club/internal/repo"
	"github.com/MorseWayne/players_club/internal/resp"
	"github.com/MorseWayne/players_club/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func performRequest(h http.Handler, method, path string, body io.Reader, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, path, body)
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func jsonBody(v any) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func newProductEngine(catalog service.CatalogService) *gin.Engine {
	h := NewProductHandler(catalog, nil)
	r := gin.New()
	r.GET("/products", h.ListProducts)
	r.GET("/products/:id", h.GetProduct)
	r.GET("/products/slug/:slug", h.GetProductBySlug)
	r.GET("/products/category/:category", h.ListByCategory)
	r.GET("/search", h.SearchProducts)
	r.POST("/admin/products", h.CreateProduct)
	r.PUT("/admin/products/:id", h.UpdateProduct)
	r.DELETE("/admin/products/:id", h.DeleteProduct)
	r.GET("/admin/stats", h.GetStats)
	return r
}

func TestProductHandler_StatusMapping(t *testing.T) {
	catalog := &mockCatalogService{
		getFunc: func(ctx context.Context, id string) (*domain.Product, error) {
			if err := domain.ValidateProductID(id); err != nil {
				return nil, err
			}
			return nil, domain.Errorf(domain.ENOTFOUND, "mock.get", "Product not found")
		},
		listFunc: func(ctx context.Context) ([]*domain.Product, error) {
			return nil, domain.WrapError(errors.New("dial tcp: refused"), domain.EUNAVAILABLE, "mock.list", "Catalog storage unavailable")
		},
		createFunc: func(ctx context.Context, in *domain.ProductInput) (*domain.Product, error) {
			return nil, domain.Errorf(domain.ECONFLICT, "mock.create", "A product with slug %q already exists", "hoodie")
		},
		statsFunc: func(ctx context.Context) (*domain.CatalogAggregateStats, error) {
			return nil, errors.New("boom")
		},
	}
	engine := newProductEngine(catalog)

	tests := []struct {
		name       string
		method     string
		path       string
		body       io.Reader
		wantStatus int
		wantCode   int
	}{
		{"malformed id", http.MethodGet, "/products/abc", nil, http.StatusBadRequest, resp.CodeInvalidParam},
		{"not found", http.MethodGet, "/products/" + domain.NewProductID(), nil, http.StatusNotFound, resp.CodeNotFound},
		{"unavailable", http.MethodGet, "/products", nil, http.StatusServiceUnavailable, resp.CodeUnavailable},
		{"unknown category", http.MethodGet, "/products/category/shoes", nil, http.StatusBadRequest, resp.CodeInvalidParam},
		{"missing slug", http.MethodGet, "/products/slug/missing", nil, http.StatusNotFound, resp.CodeNotFound},
		{"conflict", http.MethodPost, "/admin/products", jsonBody(map[string]any{"name": "Hoodie"}), http.StatusConflict, resp.CodeConflict},
		{"bad json", http.MethodPost, "/admin/products", bytes.NewBufferString("{"), http.StatusBadRequest, resp.CodeInvalidParam},
		{"internal", http.MethodGet, "/admin/stats", nil, http.StatusInternalServerError, resp.CodeInternalError},
		{"search", http.MethodGet, "/search?q=hoodie", nil, http.StatusOK, resp.CodeOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := performRequest(engine, tt.method, tt.path, tt.body, nil)
			if rec.Code != tt.wantStatus || env.Code != tt.wantCode {
				t.Errorf("got %d/%d, want %d/%d (%s)", rec.Code, env.Code, tt.wantStatus, tt.wantCode, rec.Body.String())
			}
		})
	}

	_, env := performRequest(engine, http.MethodGet, "/admin/stats", nil, nil)
	if env.Message != "An internal error occurred. Please try again later." {
		t.Errorf("internal errors must not leak details, got %q", env.Message)
	}
}

func TestProductHandler_ValidationErrors(t *testing.T) {
	catalog := &mockCatalogService{
		createFunc: func(ctx context.Context, in *domain.ProductInput) (*domain.Product, error) {
			in.Normalize()
			if fields := domain.ValidateProduct(in); len(fields) > 0 {
				return nil, domain.NewValidationError("mock.create", fields)
			}
			return &domain.Product{Name: in.Name}, nil
		},
	}
	engine := newProductEngine(catalog)

	rec, env := performRequest(engine, http.MethodPost, "/admin/products",
		jsonBody(map[string]any{"name": "Hoodie", "details": "a\n\n b "}), nil)
	if rec.Code != http.StatusBadRequest || env.Code != resp.CodeValidationFailed {
		t.Fatalf("got %d/%d", rec.Code, env.Code)
	}
	var data struct {
		Errors []domain.FieldError `json:"errors"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("invalid data: %v", err)
	}
	if len(data.Errors) == 0 || data.Errors[0].Field != "description" {
		t.Errorf("unexpected errors: %+v", data.Errors)
	}
	for _, fe := range data.Errors {
		if fe.Field == "details" {
			t.Errorf("newline-delimited details should be accepted, got %+v", fe)
		}
	}
}

func TestProductHandler_CreateAndDelete(t *testing.T) {
	engine := newProductEngine(&mockCatalogService{})

	rec, env := performRequest(engine, http.MethodPost, "/admin/products", jsonBody(map[string]any{"name": "Hoodie"}), nil)
	if rec.Code != http.StatusCreated || env.Code != resp.CodeOK {
		t.Errorf("create = %d/%d", rec.Code, env.Code)
	}

	rec, _ = performRequest(engine, http.MethodDelete, "/admin/products/"+domain.NewProductID(), nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("delete = %d", rec.Code)
	}

	rec, env = performRequest(engine, http.MethodGet, "/products", nil, nil)
	var products []map[string]any
	if err := json.Unmarshal(env.Data, &products); err != nil || len(products) != 2 {
		t.Errorf("list = %d %s", rec.Code, rec.Body.String())
	}
}

func newCartEngine(carts service.CartService, checkout service.CheckoutService) *gin.Engine {
	h := NewCartHandler(carts, checkout, nil)
	r := gin.New()
	r.GET("/cart", h.GetCart)
	r.POST("/cart/items", h.AddItem)
	r.PATCH("/cart/items/:lineId", h.UpdateItem)
	r.DELETE("/cart/items/:lineId", h.RemoveItem)
	r.DELETE("/cart", h.ClearCart)
	r.POST("/cart/toggle", h.ToggleCart)
	r.POST("/checkout", h.Checkout)
	return r
}

func TestCartHandler(t *testing.T) {
	carts := &mockCartService{}
	engine := newCartEngine(carts, &mockCheckoutService{})
	headers := map[string]string{HeaderCartSession: "s1", HeaderDeviceID: "dev-1"}

	rec, _ := performRequest(engine, http.MethodGet, "/cart", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing session = %d, want 400", rec.Code)
	}

	rec, env := performRequest(engine, http.MethodPost, "/cart/items",
		jsonBody(map[string]any{"productId": "p1", "color": "Black", "size": "L", "quantity": 2}), headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("add = %d %s", rec.Code, rec.Body.String())
	}
	var cart domain.Cart
	if err := json.Unmarshal(env.Data, &cart); err != nil || cart.Total != 90 {
		t.Errorf("cart = %+v, %v", cart, err)
	}
	if carts.lastSession != "s1" || carts.lastDevice != "dev-1" {
		t.Errorf("headers not forwarded: %+v", carts)
	}

	rec, _ = performRequest(engine, http.MethodPost, "/cart/items", jsonBody(map[string]any{"quantity": 1}), headers)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing productId = %d, want 400", rec.Code)
	}

	rec, _ = performRequest(engine, http.MethodPatch, "/cart/items/line-1", jsonBody(map[string]any{"quantity": 0}), headers)
	if rec.Code != http.StatusOK || carts.lastQty != 0 {
		t.Errorf("update to zero = %d, qty %d", rec.Code, carts.lastQty)
	}
	rec, _ = performRequest(engine, http.MethodPatch, "/cart/items/line-1", jsonBody(map[string]any{}), headers)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("update without quantity = %d, want 400", rec.Code)
	}

	for _, path := range []string{"/cart/items/line-1", "/cart"} {
		if rec, _ := performRequest(engine, http.MethodDelete, path, nil, headers); rec.Code != http.StatusOK {
			t.Errorf("DELETE %s = %d", path, rec.Code)
		}
	}

	_, env = performRequest(engine, http.MethodPost, "/cart/toggle", nil, headers)
	if err := json.Unmarshal(env.Data, &cart); err != nil || !cart.IsOpen {
		t.Errorf("toggle = %+v", cart)
	}

	carts.err = domain.Errorf(domain.ENOTFOUND, "mock.update", "Cart item not found")
	rec, _ = performRequest(engine, http.MethodPatch, "/cart/items/nope", jsonBody(map[string]any{"quantity": 3}), headers)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown line = %d, want 404", rec.Code)
	}
}

func TestCartHandler_Checkout(t *testing.T) {
	checkout := &mockCheckoutService{
		checkoutFunc: func(ctx context.Context, sessionID, deviceID string, req *service.CheckoutRequest) (*service.CheckoutResult, error) {
			if sessionID == "empty" {
				return nil, domain.Errorf(domain.EINVALID, "mock.checkout", "Cart is empty")
			}
			return &service.CheckoutResult{Method: req.Method, URL: "https://wa.me/1", Total: 90}, nil
		},
	}
	engine := newCartEngine(&mockCartService{}, checkout)

	tests := []struct {
		name       string
		session    string
		body       any
		wantStatus int
	}{
		{"whatsapp", "s1", map[string]string{"method": "whatsapp"}, http.StatusOK},
		{"empty cart", "empty", map[string]string{"method": "whatsapp"}, http.StatusBadRequest},
		{"missing method", "s1", map[string]string{}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := performRequest(engine, http.MethodPost, "/checkout", jsonBody(tt.body), map[string]string{HeaderCartSession: tt.session})
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestLedgerHandler(t *testing.T) {
	ledger := service.NewLedgerService(repo.NewLedgerRepository(cache.NewMemoryCache()), nil)
	h := NewLedgerHandler(ledger, ledger, &mockCatalogService{}, nil)
	r := gin.New()
	r.GET("/ledger", h.GetSummary)
	r.GET("/ledger/orders", h.GetOrders)
	r.POST("/ledger/reset", h.Reset)
	r.POST("/ledger/subtract", h.Subtract)
	r.DELETE("/ledger/orders/:index", h.DeleteOrder)
	r.DELETE("/ledger/orders", h.DeleteAllOrders)

	ctx := context.Background()
	ledger.RecordAddToBag(ctx, "dev", "p2", 5)
	ledger.RecordCheckout(ctx, "dev", []domain.CartItem{{ProductID: "p1", Quantity: 1}}, 40, domain.CheckoutWhatsApp)
	headers := map[string]string{HeaderDeviceID: "dev"}

	if rec, _ := performRequest(r, http.MethodGet, "/ledger", nil, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("missing device = %d", rec.Code)
	}

	_, env := performRequest(r, http.MethodGet, "/ledger", nil, headers)
	var summary domain.LedgerSummary
	if err := json.Unmarshal(env.Data, &summary); err != nil {
		t.Fatalf("invalid summary: %v", err)
	}
	if summary.TotalRevenue != 40 || summary.MostAddedToBag == nil || summary.MostAddedToBag.Product.ID != "p2" {
		t.Errorf("unexpected summary: %+v", summary)
	}

	rec, _ := performRequest(r, http.MethodPost, "/ledger/subtract", jsonBody(map[string]any{"revenue": 100, "checkouts": 1}), headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("subtract = %d", rec.Code)
	}
	if s := ledger.Stats(ctx, "dev"); s.TotalRevenue != 0 || s.TotalCheckouts != 0 {
		t.Errorf("subtract not applied: %+v", s)
	}
	if rec, _ := performRequest(r, http.MethodPost, "/ledger/subtract", jsonBody(map[string]any{"revenue": -1}), headers); rec.Code != http.StatusBadRequest {
		t.Errorf("negative subtract = %d", rec.Code)
	}

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/ledger/orders/x", http.StatusBadRequest},
		{"/ledger/orders/3", http.StatusNotFound},
		{"/ledger/orders/0", http.StatusOK},
	}
	for _, tt := range tests {
		if rec, _ := performRequest(r, http.MethodDelete, tt.path, nil, headers); rec.Code != tt.wantStatus {
			t.Errorf("DELETE %s = %d, want %d", tt.path, rec.Code, tt.wantStatus)
		}
	}

	if rec, _ := performRequest(r, http.MethodDelete, "/ledger/orders", nil, headers); rec.Code != http.StatusOK {
		t.Errorf("delete all = %d", rec.Code)
	}
	if rec, _ := performRequest(r, http.MethodPost, "/ledger/reset", nil, headers); rec.Code != http.StatusOK {
		t.Errorf("reset = %d", rec.Code)
	}
	if got := ledger.Stats(ctx, "dev").Counters("p2").AddedToBag; got != 0 {
		t.Errorf("reset should clear counters, got %d", got)
	}
}

func TestAuthHandler(t *testing.T) {
	h := NewAuthHandler(mockAuthService{}, nil)
	r := gin.New()
	r.POST("/login", h.Login)
	r.POST("/refresh", h.Refresh)

	tests := []struct {
		name       string
		path       string
		body       any
		wantStatus int
		wantCode   int
	}{
		{"login ok", "/login", map[string]string{"username": "owner", "password": "s3cret"}, http.StatusOK, resp.CodeOK},
		{"login wrong", "/login", map[string]string{"username": "owner", "password": "nope"}, http.StatusUnauthorized, resp.CodeUnauthorized},
		{"login missing", "/login", map[string]string{"username": "owner"}, http.StatusBadRequest, resp.CodeInvalidParam},
		{"refresh ok", "/refresh", map[string]string{"refreshToken": "refresh"}, http.StatusOK, resp.CodeOK},
		{"refresh bad", "/refresh", map[string]string{"refreshToken": "x"}, http.StatusUnauthorized, resp.CodeUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := performRequest(r, http.MethodPost, tt.path, jsonBody(tt.body), nil)
			if rec.Code != tt.wantStatus || env.Code != tt.wantCode {
				t.Errorf("got %d/%d, want %d/%d", rec.Code, env.Code, tt.wantStatus, tt.wantCode)
			}
		})
	}
}

// pngHeader 足以被识别为 image/png 的文件头
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func multipartBody(t *testing.T, files map[string][]byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := w.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = part.Write(data)
	}
	_ = w.Close()
	return &buf, w.FormDataContentType()
}

func TestUploadHandler(t *testing.T) {
	store := &mockImageStore{}
	h := NewUploadHandler(store, 1<<20, nil)
	r := gin.New()
	r.POST("/upload", h.Upload)

	body, ct := multipartBody(t, map[string][]byte{"front side.png": pngHeader})
	rec, env := performRequest(r, http.MethodPost, "/upload", body, map[string]string{"Content-Type": ct})
	if rec.Code != http.StatusOK {
		t.Fatalf("upload = %d %s", rec.Code, rec.Body.String())
	}
	var result uploadResult
	if err := json.Unmarshal(env.Data, &result); err != nil || len(result.Files) != 1 || result.Files[0] != "/uploads/front side.png" {
		t.Errorf("result = %+v, %v", result, err)
	}

	body, ct = multipartBody(t, map[string][]byte{"notes.txt": []byte("hello world")})
	if rec, _ := performRequest(r, http.MethodPost, "/upload", body, map[string]string{"Content-Type": ct}); rec.Code != http.StatusBadRequest {
		t.Errorf("non-image = %d, want 400", rec.Code)
	}

	body, ct = multipartBody(t, map[string][]byte{})
	if rec, _ := performRequest(r, http.MethodPost, "/upload", body, map[string]string{"Content-Type": ct}); rec.Code != http.StatusBadRequest {
		t.Errorf("no files = %d, want 400", rec.Code)
	}

	store.err = domain.Errorf(domain.EUNAVAILABLE, "mock.store", "Image storage unavailable")
	body, ct = multipartBody(t, map[string][]byte{"a.png": pngHeader})
	if rec, _ := performRequest(r, http.MethodPost, "/upload", body, map[string]string{"Content-Type": ct}); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("store down = %d, want 503", rec.Code)
	}
}
