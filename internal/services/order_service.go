package services

import (
	"errors"

	"pos_terminal_backend/internal/models"
	"pos_terminal_backend/internal/repositories"
)

// ErrOrderNotFound is returned when the requested order does not exist.
var ErrOrderNotFound = errors.New("order not found")

// OrderService is the read surface over orders and table sessions. The
// reconciliation core never creates orders; it only aggregates what the
// order-taking side already wrote.
type OrderService interface {
	GetOrderByID(orderID int64) (*models.Order, error)
	ListOrders(branchID, date string, status *string) ([]models.Order, error)
	CountOpenOrders(branchID, date string) (int, error)
	ListOpenTableSessions(branchID string) ([]models.TableSession, error)
}

type orderService struct {
	orderRepo repositories.OrderRepository
	tableRepo repositories.TableRepository
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(or repositories.OrderRepository, tr repositories.TableRepository) OrderService {
	return &orderService{orderRepo: or, tableRepo: tr}
}

func (s *orderService) GetOrderByID(orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *orderService) ListOrders(branchID, date string, status *string) ([]models.Order, error) {
	return s.orderRepo.ListOrders(branchID, date, status)
}

func (s *orderService) CountOpenOrders(branchID, date string) (int, error) {
	return s.orderRepo.CountOpenOrdersForDate(branchID, date)
}

func (s *orderService) ListOpenTableSessions(branchID string) ([]models.TableSession, error) {
	return s.tableRepo.ListOpenSessions(branchID)
}
