package service

import (
	"context"
	"encoding/json"

	"videoearn/internal/domain"
	"videoearn/internal/models"
	"videoearn/internal/money"
	"videoearn/internal/repository"
)

type NotificationService struct {
	repo *repository.NotificationRepository
}

func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) Notify(ctx context.Context, accountID uint, notifType, title, body string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	return s.repo.Create(ctx, &models.Notification{
		AccountID: accountID,
		Type:      notifType,
		Title:     title,
		Body:      body,
		Data:      dataJSON,
	})
}

func (s *NotificationService) NotifyPaymentConfirmed(ctx context.Context, accountID uint, purpose string, amountPaise int64, reference string) error {
	body := "Your deposit of Rs " + money.Format(amountPaise) + " has been added to your balance."
	if purpose == domain.PaymentPurposePremium {
		body = "Your premium membership is now active."
	}
	return s.Notify(ctx, accountID, domain.NotifPaymentConfirmed, "Payment confirmed", body,
		map[string]interface{}{"purpose": purpose, "amount_paise": amountPaise, "reference": reference})
}

func (s *NotificationService) List(ctx context.Context, accountID uint, limit, offset int) ([]models.Notification, error) {
	list, err := s.repo.ListByAccountID(ctx, accountID, limit, offset)
	return list, classify(err)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, accountID uint) error {
	return classify(s.repo.MarkRead(ctx, id, accountID))
}
