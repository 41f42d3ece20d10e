// Package server implements the catalog and order HTTP API backing the
// storefront, for local development against a SQLite database.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/mail"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/maks2008271/supercell-shop/internal/domain"
	"github.com/maks2008271/supercell-shop/internal/host"
	"github.com/maks2008271/supercell-shop/internal/platform/observability"
	"github.com/maks2008271/supercell-shop/internal/store"
)

const (
	requestTimeout     = 30 * time.Second
	maxPurchaseBody    = 16 * 1024
	maxQueryLength     = 100
	defaultOrdersLimit = 20
)

// Deps wires the HTTP layer's collaborators.
type Deps struct {
	Store    *store.Store
	BotToken string
	// Dev enables Bearer-token auth for environments without a host shell.
	Dev          bool
	DevJWTSecret string
	ImageDir     string
	Logger       *zap.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Handlers serves the storefront API.
type Handlers struct {
	store    *store.Store
	botToken string
	dev      bool
	devKey   string
	imageDir string
	logger   *zap.Logger
	now      func() time.Time
}

// New validates dependencies and constructs the handler set.
func New(deps Deps) (*Handlers, error) {
	if deps.Store == nil {
		return nil, errors.New("server: store is required")
	}
	if deps.BotToken == "" && !deps.Dev {
		return nil, errors.New("server: bot token is required outside dev mode")
	}
	if deps.Dev && deps.DevJWTSecret == "" {
		return nil, errors.New("server: dev mode requires a jwt secret")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Handlers{
		store:    deps.Store,
		botToken: deps.BotToken,
		dev:      deps.Dev,
		devKey:   deps.DevJWTSecret,
		imageDir: deps.ImageDir,
		logger:   observability.Ensure(deps.Logger),
		now:      clock,
	}, nil
}

// Router builds the chi router with the shared middleware stack.
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not found")
	})

	r.Get("/healthz", h.healthz)
	r.Route("/api", func(api chi.Router) {
		api.Get("/products", h.listProducts)
		api.Get("/product/{productID}", h.getProduct)
		api.Get("/user/{userID}", h.getUser)
		api.Get("/user/{userID}/orders", h.getUserOrders)
		api.Get("/search", h.search)
		api.Post("/purchase", h.purchase)
		api.Get("/product-image/{fileID}", h.productImage)
	})
	return r
}

func (h *Handlers) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) listProducts(w http.ResponseWriter, r *http.Request) {
	game := strings.TrimSpace(r.URL.Query().Get("game"))
	sub := strings.TrimSpace(r.URL.Query().Get("subcategory"))
	if game != "" && !domain.KnownGame(game) {
		writeDetail(w, http.StatusBadRequest, "Unknown game")
		return
	}
	products, err := h.store.Products(game, sub)
	if err != nil {
		h.internalError(w, r, "list products", err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handlers) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || id <= 0 {
		writeDetail(w, http.StatusBadRequest, "Invalid product id")
		return
	}
	product, err := h.store.ProductByID(id)
	if errors.Is(err, store.ErrProductNotFound) {
		writeDetail(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		h.internalError(w, r, "get product", err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *Handlers) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id <= 0 {
		writeDetail(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	profile, err := h.store.UserStats(id)
	if errors.Is(err, store.ErrUserNotFound) {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.internalError(w, r, "get user", err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handlers) getUserOrders(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id <= 0 {
		writeDetail(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	limit := defaultOrdersLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	orders, err := h.store.UserOrders(id, limit)
	if err != nil {
		h.internalError(w, r, "get orders", err)
		return
	}
	// Pickup codes are only revealed once the order is paid.
	for i := range orders {
		if !orders[i].Status.Paid() {
			orders[i].PickupCode = ""
		}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	q := sanitizeQuery(r.URL.Query().Get("q"))
	game := strings.TrimSpace(r.URL.Query().Get("game"))
	if !domain.KnownGame(game) {
		game = ""
	}
	if len([]rune(q)) < 2 {
		writeJSON(w, http.StatusOK, []domain.Product{})
		return
	}
	products, err := h.store.Products(game, "")
	if err != nil {
		h.internalError(w, r, "search", err)
		return
	}
	ranked := Rank(products, q)
	h.logger.Info("search served", zap.String("query", q), zap.Int("results", len(ranked)))
	writeJSON(w, http.StatusOK, ranked)
}

type purchasePayload struct {
	UserID      int64  `json:"user_id"`
	ProductID   int64  `json:"product_id"`
	SupercellID string `json:"supercell_id"`
}

type purchaseResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	OrderID         int64  `json:"order_id,omitempty"`
	PaymentRequired bool   `json:"payment_required,omitempty"`
}

func (h *Handlers) purchase(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPurchaseBody))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Невозможно прочитать запрос")
		return
	}
	var req purchasePayload
	if err := json.Unmarshal(body, &req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Ошибка валидации данных")
		return
	}
	if req.UserID <= 0 || req.ProductID <= 0 {
		writeDetail(w, http.StatusUnprocessableEntity, "Ошибка валидации данных")
		return
	}
	supercellID, err := normalizeSupercellID(req.SupercellID)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Некорректный формат email")
		return
	}
	if identity.ID != req.UserID {
		h.logger.Warn("purchase user mismatch",
			zap.Int64("request_user", req.UserID),
			zap.Int64("token_user", identity.ID))
		writeDetail(w, http.StatusForbidden, "Несоответствие пользователя")
		return
	}

	if _, err := h.store.GetOrCreateUser(req.UserID, "", identity.FirstName); err != nil {
		h.internalError(w, r, "ensure user", err)
		return
	}

	order, err := h.store.CreateOrder(req.UserID, req.ProductID, supercellID)
	switch {
	case errors.Is(err, store.ErrProductNotFound):
		writeJSON(w, http.StatusOK, purchaseResponse{Success: false, Message: "Товар не найден"})
		return
	case errors.Is(err, store.ErrOutOfStock):
		writeJSON(w, http.StatusOK, purchaseResponse{Success: false, Message: "Товар закончился"})
		return
	case err != nil:
		h.internalError(w, r, "create order", err)
		return
	}

	h.logger.Info("order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", order.UserID),
		zap.Int64("product_id", order.ProductID))

	// The pickup code is withheld until payment is confirmed.
	writeJSON(w, http.StatusOK, purchaseResponse{
		Success:         true,
		Message:         "Заказ создан. Ожидает оплаты.",
		OrderID:         order.ID,
		PaymentRequired: true,
	})
}

// authenticate resolves the caller's identity from the init-data header, or a
// dev Bearer token when dev mode is on. On failure it writes the 401 itself.
func (h *Handlers) authenticate(w http.ResponseWriter, r *http.Request) (host.InitDataUser, bool) {
	if h.dev {
		if raw := bearerToken(r); raw != "" {
			user, err := host.VerifyDevToken(h.devKey, raw)
			if err != nil {
				writeDetail(w, http.StatusUnauthorized, "Неверная авторизация Telegram")
				return host.InitDataUser{}, false
			}
			return user, true
		}
	}

	initData := r.Header.Get("X-Telegram-Init-Data")
	if initData == "" {
		writeDetail(w, http.StatusUnauthorized, "Требуется авторизация через Telegram")
		return host.InitDataUser{}, false
	}
	user, err := host.VerifyInitData(initData, h.botToken, h.now())
	if err != nil {
		h.logger.Warn("init data rejected", zap.Error(err))
		writeDetail(w, http.StatusUnauthorized, "Неверная авторизация Telegram")
		return host.InitDataUser{}, false
	}
	return user, true
}

func (h *Handlers) productImage(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	if h.imageDir == "" || fileID == "" || fileID != filepath.Base(fileID) {
		writeDetail(w, http.StatusNotFound, "Image not found")
		return
	}
	http.ServeFile(w, r, filepath.Join(h.imageDir, fileID))
}

func (h *Handlers) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.Error(op+" failed", zap.Error(err), zap.String("path", r.URL.Path))
	writeDetail(w, http.StatusInternalServerError, "Ошибка сервера")
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}
	return ""
}

// normalizeSupercellID trims, bounds and validates the account email.
func normalizeSupercellID(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if len(v) < 5 || len(v) > 100 {
		return "", errors.New("length out of range")
	}
	if _, err := mail.ParseAddress(v); err != nil {
		return "", err
	}
	if !strings.Contains(v, "@") || !strings.Contains(v[strings.LastIndex(v, "@"):], ".") {
		return "", errors.New("missing domain")
	}
	return strings.ToLower(v), nil
}

var queryStrip = strings.NewReplacer("<", "", ">", "", `"`, "", "'", "", ";", "", `\`, "")

func sanitizeQuery(q string) string {
	q = strings.TrimSpace(q)
	if runes := []rune(q); len(runes) > maxQueryLength {
		q = string(runes[:maxQueryLength])
	}
	return queryStrip.Replace(q)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
