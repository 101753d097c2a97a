package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
)

// MessageStore persists chat messages. Implementations report missing ids
// with an error matching svcErr.ErrNotFound.
type MessageStore interface {
	Create(ctx context.Context, m *db.Message) error
	Get(ctx context.Context, id string) (*db.Message, error)
	Update(ctx context.Context, m *db.Message) error
	Delete(ctx context.Context, id string) error
}

// MessageRepository is the relational MessageStore.
type MessageRepository struct {
	db *gorm.DB
}

var _ MessageStore = (*MessageRepository)(nil)

func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

func (r *MessageRepository) Create(ctx context.Context, m *db.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MessageRepository) Get(ctx context.Context, id string) (*db.Message, error) {
	var m db.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("unknown message id %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Update overwrites the mutable fields of an existing message.
func (r *MessageRepository) Update(ctx context.Context, m *db.Message) error {
	res := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("id = ?", m.ID).
		Select("text", "status", "reply_to", "group_id", "media", "updated_at").
		Updates(m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return svcErr.NotFound("unknown message id %s", m.ID)
	}
	return nil
}

func (r *MessageRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&db.Message{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return svcErr.NotFound("unknown message id %s", id)
	}
	return nil
}
