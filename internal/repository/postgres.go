package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/campusbridge/meet/internal/domain"
	"github.com/campusbridge/meet/internal/repository/model"
)

type PostgresMeetingRepository struct {
	db *gorm.DB
}

func NewPostgresMeetingRepository(db *gorm.DB) *PostgresMeetingRepository {
	return &PostgresMeetingRepository{db: db}
}

// Create inserts the meeting only if the room id is free. ON CONFLICT DO
// NOTHING keeps first-arrival-wins atomic: the second writer sees zero
// affected rows and ErrMeetingExists instead of silently overwriting the host.
func (r *PostgresMeetingRepository) Create(ctx context.Context, meeting *domain.Meeting) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if meeting == nil {
		return errors.New("meeting is nil")
	}

	meetingModel := toModelMeeting(meeting)

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(meetingModel)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMeetingExists
	}
	return nil
}

func (r *PostgresMeetingRepository) GetByID(ctx context.Context, roomID string) (*domain.Meeting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var meeting model.Meeting
	err := r.db.WithContext(ctx).First(&meeting, "room_id = ?", roomID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMeetingNotFound
		}
		return nil, err
	}

	return toDomainMeeting(&meeting), nil
}

func (r *PostgresMeetingRepository) SetStatus(ctx context.Context, roomID string, status domain.MeetingStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	updates := map[string]any{"status": string(status)}
	if status == domain.MeetingStatusEnded {
		updates["ended_at"] = time.Now().UTC()
	}

	res := r.db.WithContext(ctx).
		Model(&model.Meeting{}).
		Where("room_id = ?", roomID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMeetingNotFound
	}
	return nil
}

func (r *PostgresMeetingRepository) Delete(ctx context.Context, roomID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Delete(&model.Meeting{}, "room_id = ?", roomID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMeetingNotFound
	}
	return nil
}

// DeleteExpired reaps meetings whose lifetime has lapsed, plus ended meetings.
// Rooms must not accumulate indefinitely after their calls are torn down.
func (r *PostgresMeetingRepository) DeleteExpired(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Where("(expires_at IS NOT NULL AND expires_at < ?) OR status = ?", now, string(domain.MeetingStatusEnded)).
		Delete(&model.Meeting{})
	return res.RowsAffected, res.Error
}

func (r *PostgresMeetingRepository) List(ctx context.Context) ([]*domain.Meeting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var meetings []model.Meeting
	if err := r.db.WithContext(ctx).Find(&meetings).Error; err != nil {
		return nil, err
	}

	result := make([]*domain.Meeting, 0, len(meetings))
	for i := range meetings {
		result = append(result, toDomainMeeting(&meetings[i]))
	}
	return result, nil
}

func toModelMeeting(m *domain.Meeting) *model.Meeting {
	mm := &model.Meeting{
		ID:        m.ID,
		RoomID:    m.RoomID,
		HostID:    m.HostID,
		Status:    string(m.Status),
		CreatedAt: m.CreatedAt,
	}
	if !m.EndedAt.IsZero() {
		t := m.EndedAt
		mm.EndedAt = &t
	}
	if !m.ExpiresAt.IsZero() {
		t := m.ExpiresAt
		mm.ExpiresAt = &t
	}
	return mm
}

func toDomainMeeting(m *model.Meeting) *domain.Meeting {
	dm := &domain.Meeting{
		ID:        m.ID,
		RoomID:    m.RoomID,
		HostID:    m.HostID,
		Status:    domain.MeetingStatus(m.Status),
		CreatedAt: m.CreatedAt,
	}
	if m.EndedAt != nil {
		dm.EndedAt = *m.EndedAt
	}
	if m.ExpiresAt != nil {
		dm.ExpiresAt = *m.ExpiresAt
	}
	return dm
}
