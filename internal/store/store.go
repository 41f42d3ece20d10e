// Package store persists the dev server's catalog, users and orders in
// SQLite.
package store

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/maks2008271/supercell-shop/internal/domain"
	"github.com/maks2008271/supercell-shop/internal/platform/observability"
)

var (
	// ErrUserNotFound indicates no user row exists for the identifier.
	ErrUserNotFound = errors.New("store: user not found")
	// ErrProductNotFound indicates no product row exists for the identifier.
	ErrProductNotFound = errors.New("store: product not found")
	// ErrOutOfStock indicates the product cannot currently be ordered.
	ErrOutOfStock = errors.New("store: product out of stock")
)

// Product is the catalog row.
type Product struct {
	ID          int64 `gorm:"primaryKey"`
	Name        string
	Description string
	Price       float64
	Game        string `gorm:"index"`
	Subcategory string `gorm:"index"`
	InStock     bool
	ImageFileID string
	ImagePath   string
}

// User is an account row. UID is the short sequential identifier shown in
// the profile, distinct from the host user id.
type User struct {
	UserID       int64 `gorm:"primaryKey"`
	UID          int64 `gorm:"uniqueIndex"`
	Username     string
	FirstName    string
	CreatedAt    time.Time
	LastActivity time.Time
}

// Order is an order row.
type Order struct {
	ID          int64 `gorm:"primaryKey"`
	UserID      int64 `gorm:"index"`
	ProductID   int64
	ProductName string
	Amount      float64
	Game        string
	Status      string `gorm:"index"`
	PickupCode  string
	SupercellID string
	CreatedAt   time.Time
}

// PaymentTransaction records an external payment attempt for an order.
type PaymentTransaction struct {
	ID        string `gorm:"primaryKey"`
	OrderID   int64  `gorm:"index"`
	Status    string
	CreatedAt time.Time
}

// Deps wires the store's collaborators.
type Deps struct {
	DSN    string
	Logger *zap.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
	// IDGenerator mints payment transaction identifiers, defaulting to ULID.
	IDGenerator func() string
}

// Store wraps the database handle.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// Open opens (creating if needed) the SQLite database and migrates the
// schema.
func Open(deps Deps) (*Store, error) {
	if strings.TrimSpace(deps.DSN) == "" {
		return nil, errors.New("store: dsn is required")
	}
	db, err := gorm.Open(sqlite.Open(deps.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if err := db.AutoMigrate(&Product{}, &User{}, &Order{}, &PaymentTransaction{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}

	return &Store{
		db:     db,
		logger: observability.Ensure(deps.Logger),
		now:    func() time.Time { return clock().UTC() },
		newID:  idGen,
	}, nil
}

// UpsertProduct creates or replaces a catalog row by id.
func (s *Store) UpsertProduct(p Product) error {
	return s.db.Save(&p).Error
}

// Products returns the catalog, optionally filtered by game and subcategory.
func (s *Store) Products(game, subcategory string) ([]domain.Product, error) {
	q := s.db.Model(&Product{}).Order("id")
	if game != "" {
		q = q.Where("game = ?", game)
	}
	if subcategory != "" {
		q = q.Where("subcategory = ?", subcategory)
	}
	var rows []Product
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// ProductByID resolves a single product.
func (s *Store) ProductByID(id int64) (domain.Product, error) {
	var row Product
	if err := s.db.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Product{}, ErrProductNotFound
		}
		return domain.Product{}, err
	}
	return row.toDomain(), nil
}

// GetOrCreateUser loads the user row, creating one with the next free UID on
// first contact.
func (s *Store) GetOrCreateUser(userID int64, username, firstName string) (User, error) {
	var user User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "user_id = ?", userID).Error; err == nil {
			return tx.Model(&user).Update("last_activity", s.now()).Error
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		var maxUID int64
		if err := tx.Model(&User{}).Select("COALESCE(MAX(uid), 0)").Scan(&maxUID).Error; err != nil {
			return err
		}
		user = User{
			UserID:       userID,
			UID:          maxUID + 1,
			Username:     username,
			FirstName:    firstName,
			CreatedAt:    s.now(),
			LastActivity: s.now(),
		}
		return tx.Create(&user).Error
	})
	return user, err
}

// UserStats builds the profile payload: the short UID, the paid order count
// and the total spent.
func (s *Store) UserStats(userID int64) (domain.UserProfile, error) {
	var user User
	if err := s.db.First(&user, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserProfile{}, ErrUserNotFound
		}
		return domain.UserProfile{}, err
	}

	type agg struct {
		Count int
		Total float64
	}
	var a agg
	err := s.db.Model(&Order{}).
		Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND status IN ?", userID, []string{
			string(domain.OrderStatusPaid), string(domain.OrderStatusCompleted),
		}).
		Scan(&a).Error
	if err != nil {
		return domain.UserProfile{}, err
	}
	return domain.UserProfile{UID: user.UID, OrdersCount: a.Count, TotalSpent: a.Total}, nil
}

// UserOrders returns the order history, newest first.
func (s *Store) UserOrders(userID int64, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []Order
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Order{
			ID:          r.ID,
			ProductName: r.ProductName,
			Amount:      r.Amount,
			Status:      domain.OrderStatus(r.Status),
			Game:        r.Game,
			PickupCode:  r.PickupCode,
			CreatedAt:   r.CreatedAt,
		})
	}
	return out, nil
}

// CreateOrder creates an order for the product with a fresh pickup code,
// initially pending payment.
func (s *Store) CreateOrder(userID, productID int64, supercellID string) (Order, error) {
	product, err := s.ProductByID(productID)
	if err != nil {
		return Order{}, err
	}
	if !product.InStock {
		return Order{}, ErrOutOfStock
	}

	order := Order{
		UserID:      userID,
		ProductID:   productID,
		ProductName: product.Name,
		Amount:      product.Price,
		Game:        product.Game,
		Status:      string(domain.OrderStatusPendingPayment),
		PickupCode:  generatePickupCode(),
		SupercellID: supercellID,
		CreatedAt:   s.now(),
	}
	if err := s.db.Create(&order).Error; err != nil {
		return Order{}, err
	}
	return order, nil
}

// UpdateOrderStatus moves an order to a new status.
func (s *Store) UpdateOrderStatus(orderID int64, status domain.OrderStatus) error {
	return s.db.Model(&Order{}).Where("id = ?", orderID).Update("status", string(status)).Error
}

// SavePaymentTransaction records an external payment attempt.
func (s *Store) SavePaymentTransaction(orderID int64, status string) (PaymentTransaction, error) {
	tx := PaymentTransaction{
		ID:        s.newID(),
		OrderID:   orderID,
		Status:    status,
		CreatedAt: s.now(),
	}
	if err := s.db.Create(&tx).Error; err != nil {
		return PaymentTransaction{}, err
	}
	return tx, nil
}

func (p Product) toDomain() domain.Product {
	return domain.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Game:        p.Game,
		Subcategory: p.Subcategory,
		InStock:     p.InStock,
		ImageFileID: p.ImageFileID,
		ImagePath:   p.ImagePath,
	}
}

const pickupAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// generatePickupCode produces a code of the form XXX-XXX-XXX.
func generatePickupCode() string {
	var b strings.Builder
	for seg := 0; seg < 3; seg++ {
		if seg > 0 {
			b.WriteByte('-')
		}
		for i := 0; i < 3; i++ {
			n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(pickupAlphabet))))
			b.WriteByte(pickupAlphabet[n.Int64()])
		}
	}
	return b.String()
}
