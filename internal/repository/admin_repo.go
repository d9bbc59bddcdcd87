package repository

import (
	"time"

	"odenehouk/internal/domain"
	"odenehouk/internal/models"

	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalUsers       int64            `json:"total_users"`
	ActiveProducts   int64            `json:"active_products"`
	OrdersByStatus   map[string]int64 `json:"orders_by_status"`
	RevenueCents     int64            `json:"revenue_cents"`
	RefundedCents    int64            `json:"refunded_cents"`
	WebhookEvents    int64            `json:"webhook_events"`
	PendingOutbox    int64            `json:"pending_outbox"`
	ActiveAccessRows int64            `json:"active_access_rows"`
}

type RevenuePoint struct {
	Date        string `json:"date"`
	AmountCents int64  `json:"amount_cents"`
}

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) GetDashboardStats(now time.Time) (*DashboardStats, error) {
	s := DashboardStats{OrdersByStatus: map[string]int64{}}
	if err := r.db.Model(&models.User{}).Count(&s.TotalUsers).Error; err != nil {
		return nil, err
	}
	r.db.Model(&models.Product{}).Where("is_active = ?", true).Count(&s.ActiveProducts)

	var rows []struct {
		PaymentStatus string
		N             int64
	}
	if err := r.db.Model(&models.Order{}).Select("payment_status, COUNT(*) as n").Group("payment_status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		s.OrdersByStatus[row.PaymentStatus] = row.N
	}

	s.RevenueCents = r.sumPayments(domain.PaymentSucceeded)
	s.RefundedCents = r.sumPayments(domain.PaymentRefunded)
	r.db.Model(&models.WebhookEvent{}).Count(&s.WebhookEvents)
	r.db.Model(&models.OutboxEvent{}).Where("published_at IS NULL").Count(&s.PendingOutbox)
	r.db.Model(&models.AccessPermission{}).Where("expires_at IS NULL OR expires_at > ?", now).Count(&s.ActiveAccessRows)
	return &s, nil
}

func (r *AdminRepository) sumPayments(status string) int64 {
	var total struct{ Total int64 }
	r.db.Model(&models.Payment{}).Select("COALESCE(SUM(amount_cents), 0) as total").Where("status = ?", status).Scan(&total)
	return total.Total
}

// ListUsers returns users with search, role filter, and pagination.
func (r *AdminRepository) ListUsers(search, role string, page Page) ([]models.User, int64, error) {
	q := r.db.Model(&models.User{})
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("name LIKE ? OR email LIKE ?", like, like)
	}
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page = page.Normalize()
	var list []models.User
	err := q.Order("created_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&list).Error
	return list, total, err
}

// ListPayments returns payments with optional status filter.
func (r *AdminRepository) ListPayments(status string, page Page) ([]models.Payment, int64, error) {
	q := r.db.Model(&models.Payment{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page = page.Normalize()
	var list []models.Payment
	err := q.Order("created_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&list).Error
	return list, total, err
}

func (r *AdminRepository) ListWebhookEvents(page Page) ([]models.WebhookEvent, int64, error) {
	var total int64
	if err := r.db.Model(&models.WebhookEvent{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page = page.Normalize()
	var list []models.WebhookEvent
	err := r.db.Order("created_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&list).Error
	return list, total, err
}

func (r *AdminRepository) ListAuditLogs(page Page) ([]models.AuditLog, int64, error) {
	var total int64
	if err := r.db.Model(&models.AuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page = page.Normalize()
	var list []models.AuditLog
	err := r.db.Order("created_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&list).Error
	return list, total, err
}

// RevenueByDay returns daily succeeded payment revenue since the given time.
func (r *AdminRepository) RevenueByDay(since time.Time) ([]RevenuePoint, error) {
	var points []RevenuePoint
	err := r.db.Model(&models.Payment{}).
		Select("DATE(updated_at) as date, COALESCE(SUM(amount_cents), 0) as amount_cents").
		Where("status = ? AND updated_at >= ?", domain.PaymentSucceeded, since).
		Group("DATE(updated_at)").
		Order("date ASC").
		Scan(&points).Error
	return points, err
}

func (r *AdminRepository) UpdateUserStatus(id uint, status string) error {
	res := r.db.Model(&models.User{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
