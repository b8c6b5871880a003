package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/erp-api/internal/dto"
	"github.com/noah-isme/erp-api/internal/models"
	"github.com/noah-isme/erp-api/pkg/cache"
	appErrors "github.com/noah-isme/erp-api/pkg/errors"
	"github.com/noah-isme/erp-api/pkg/jobs"
)

// JobTypeNotification identifies notification dispatch jobs.
const JobTypeNotification = "notification.dispatch"

// errChannelUnavailable marks an external channel skipped because the event
// bus is disabled.
var errChannelUnavailable = errors.New("notification channel unavailable")

type notificationStore interface {
	ListSettings(ctx context.Context, userID string) ([]models.NotificationSetting, error)
	SaveSettings(ctx context.Context, userID string, settings []models.NotificationSetting) error
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID string, filter models.NotificationFilter) ([]models.Notification, int, error)
	MarkRead(ctx context.Context, userID, id string) error
}

type eventPublisher interface {
	Subject(tokens ...string) string
	Publish(subject string, payload interface{}) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// NotificationService owns per-user channel settings, the in-app inbox and
// delivery of approval events to every enabled channel.
type NotificationService struct {
	repo      notificationStore
	publisher eventPublisher
	queue     jobEnqueuer
	validator schemaValidator
	schemas   *SchemaRegistry
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewNotificationService constructs the service. publisher may be nil when
// external channels are disabled.
func NewNotificationService(repo notificationStore, publisher eventPublisher, validator schemaValidator, schemas *SchemaRegistry, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if schemas == nil {
		schemas = NewSchemaRegistry()
	}
	return &NotificationService{
		repo:      repo,
		publisher: publisher,
		validator: validator,
		schemas:   schemas,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
	}
}

// UseQueue routes Dispatch through a background queue. Without one events
// are delivered inline.
func (s *NotificationService) UseQueue(q jobEnqueuer) {
	s.queue = q
}

// Dispatch schedules delivery of event to the recipient's enabled channels.
func (s *NotificationService) Dispatch(ctx context.Context, event models.NotificationEvent) error {
	if event.RecipientID == "" {
		return nil
	}
	if s.queue == nil {
		return s.deliver(ctx, event)
	}
	if err := s.queue.Enqueue(jobs.Job{Type: JobTypeNotification, Payload: event}); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

// Handle is the queue handler for notification jobs.
func (s *NotificationService) Handle(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.NotificationEvent)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
	return s.deliver(ctx, event)
}

// deliver sends event to each enabled channel. It fails only when every
// enabled channel failed so a retry never duplicates a delivered message.
func (s *NotificationService) deliver(ctx context.Context, event models.NotificationEvent) error {
	matrix, err := s.Settings(ctx, event.RecipientID)
	if err != nil {
		return err
	}

	var (
		attempted int
		failures  []error
	)
	for _, channel := range models.Channels() {
		if !matrix.Enabled(event.DocumentType, channel) {
			continue
		}
		err := s.send(ctx, channel, event)
		s.metrics.RecordNotification(channel, err)
		if errors.Is(err, errChannelUnavailable) {
			s.logger.Debug("notification channel skipped",
				zap.String("channel", string(channel)),
				zap.String("recipient_id", event.RecipientID),
			)
			continue
		}
		attempted++
		if err != nil {
			s.logger.Warn("notification delivery failed",
				zap.String("channel", string(channel)),
				zap.String("recipient_id", event.RecipientID),
				zap.String("document_id", event.DocumentID),
				zap.Error(err),
			)
			failures = append(failures, err)
		}
	}
	if attempted > 0 && len(failures) == attempted {
		return errors.Join(failures...)
	}
	return nil
}

func (s *NotificationService) send(ctx context.Context, channel models.Channel, event models.NotificationEvent) error {
	if channel == models.ChannelSystem {
		return s.repo.CreateNotification(ctx, &models.Notification{
			UserID:       event.RecipientID,
			DocumentType: event.DocumentType,
			DocumentID:   event.DocumentID,
			Title:        event.Title,
			Body:         event.Body,
		})
	}
	if s.publisher == nil {
		return errChannelUnavailable
	}
	return s.publisher.Publish(s.publisher.Subject(string(channel), string(event.DocumentType)), event)
}

// Settings returns the full document type by channel matrix of a user.
// Cells without a stored row fall back to the channel default.
func (s *NotificationService) Settings(ctx context.Context, userID string) (*dto.NotificationMatrix, error) {
	matrix, _, err := remember(ctx, s.cache, settingsKey(userID), 0, func(ctx context.Context) (*dto.NotificationMatrix, error) {
		stored, err := s.repo.ListSettings(ctx, userID)
		if err != nil {
			return nil, err
		}
		return buildMatrix(userID, stored), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification settings")
	}
	return matrix, nil
}

// UpdateSettings upserts the given toggles and returns the new matrix.
func (s *NotificationService) UpdateSettings(ctx context.Context, userID string, req dto.UpdateNotificationSettingsRequest) (*dto.NotificationMatrix, error) {
	if len(req.Settings) == 0 {
		return nil, appErrors.FieldError("settings", "The settings field is required.")
	}
	fields := map[string]string{}
	settings := make([]models.NotificationSetting, 0, len(req.Settings))
	for i, input := range req.Settings {
		if err := validatePayload(ctx, s.validator, s.schemas, SchemaNotificationToggle, input); err != nil {
			var appErr *appErrors.Error
			if !errors.As(err, &appErr) || appErr.Fields == nil {
				return nil, err
			}
			for field, msg := range appErr.Fields {
				fields[fmt.Sprintf("settings.%d.%s", i, field)] = msg
			}
			continue
		}
		settings = append(settings, models.NotificationSetting{
			UserID:       userID,
			DocumentType: models.DocumentType(input.DocumentType),
			Channel:      models.Channel(input.Channel),
			Enabled:      *input.Enabled,
		})
	}
	if len(fields) > 0 {
		return nil, appErrors.Validation(fields)
	}

	if err := s.repo.SaveSettings(ctx, userID, settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save notification settings")
	}
	_ = s.cache.Invalidate(ctx, settingsKey(userID))
	return s.Settings(ctx, userID)
}

// Inbox lists the user's system channel notifications.
func (s *NotificationService) Inbox(ctx context.Context, userID string, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, error) {
	items, total, err := s.repo.ListNotifications(ctx, userID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return items, buildPagination(filter.Page, filter.PageSize, total), nil
}

// MarkRead flags one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	if err := s.repo.MarkRead(ctx, userID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

func settingsKey(userID string) string {
	return cache.Key("notification_settings", userID)
}

func buildMatrix(userID string, stored []models.NotificationSetting) *dto.NotificationMatrix {
	index := make(map[models.DocumentType]map[models.Channel]bool)
	for _, setting := range stored {
		if index[setting.DocumentType] == nil {
			index[setting.DocumentType] = map[models.Channel]bool{}
		}
		index[setting.DocumentType][setting.Channel] = setting.Enabled
	}

	matrix := &dto.NotificationMatrix{UserID: userID}
	for _, docType := range models.DocumentTypes() {
		spec, _ := docType.Spec()
		row := dto.NotificationMatrixRow{DocumentType: docType, Label: spec.Label, Channels: map[models.Channel]bool{}}
		for _, channel := range models.Channels() {
			enabled, ok := index[docType][channel]
			if !ok {
				enabled = channel.DefaultEnabled()
			}
			row.Channels[channel] = enabled
		}
		matrix.Rows = append(matrix.Rows, row)
	}
	return matrix
}
