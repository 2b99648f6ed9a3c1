package service

import (
	"context"
	"fmt"

	"github.com/spiritgear-io/spiritgear/internal/models"
	"github.com/spiritgear-io/spiritgear/internal/repository"
)

// DashboardStats is the admin dashboard snapshot.
type DashboardStats struct {
	OrdersByStatus       map[models.OrderStatus]int  `json:"orders_by_status"`
	RevenueByMonth       []repository.MonthlyRevenue `json:"revenue_by_month"`
	UnreadInbound        int                         `json:"unread_inbound"`
	ProofTurnaroundHours float64                     `json:"proof_turnaround_hours"`
}

// ReportService aggregates stats for the admin dashboard and exports.
type ReportService struct {
	orders *repository.OrderRepository
	comms  *repository.CommunicationRepository
	proofs *repository.ProofRepository
}

func NewReportService(orders *repository.OrderRepository, comms *repository.CommunicationRepository, proofs *repository.ProofRepository) *ReportService {
	return &ReportService{orders: orders, comms: comms, proofs: proofs}
}

// Dashboard gathers the stats shown on the admin landing page.
func (s *ReportService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	byStatus, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("orders by status: %w", err)
	}
	revenue, err := s.orders.RevenueByMonth(ctx)
	if err != nil {
		return nil, fmt.Errorf("revenue by month: %w", err)
	}
	unread, err := s.comms.CountUnreadInbound(ctx)
	if err != nil {
		return nil, fmt.Errorf("unread inbound: %w", err)
	}
	turnaround, err := s.proofs.AverageTurnaroundHours(ctx)
	if err != nil {
		return nil, fmt.Errorf("proof turnaround: %w", err)
	}
	return &DashboardStats{
		OrdersByStatus:       byStatus,
		RevenueByMonth:       revenue,
		UnreadInbound:        unread,
		ProofTurnaroundHours: turnaround,
	}, nil
}

// OrderRows flattens orders into export rows for the revenue report.
func (s *ReportService) OrderRows(ctx context.Context, status models.OrderStatus) ([][]any, error) {
	orders, err := s.orders.List(ctx, status, 10000, 0)
	if err != nil {
		return nil, err
	}
	rows := make([][]any, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []any{
			o.OrderNumber,
			o.SchoolName,
			o.ContactName,
			o.ContactEmail,
			string(o.Status),
			float64(o.TotalCents) / 100,
			o.CreatedAt.Format("2006-01-02"),
		})
	}
	return rows, nil
}

// OrderExportColumns matches the rows produced by OrderRows.
var OrderExportColumns = []string{"Order #", "School", "Contact", "Email", "Status", "Total", "Placed"}
