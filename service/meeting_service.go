package services

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/brightpathbh/qmportal/errs"
	model "github.com/brightpathbh/qmportal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MeetingService manages QM meetings and the packet assembled for them.
type MeetingService struct {
	db *gorm.DB
}

func NewMeetingService(db *gorm.DB) *MeetingService {
	return &MeetingService{db: db}
}

// CreateMeeting records a QM meeting.
func (s *MeetingService) CreateMeeting(userID, orgID, title string, heldAt time.Time, period string, attendees []string, minutes string) (*model.QMMeeting, error) {
	if title == "" {
		return nil, errs.New(errs.Validation, "meeting title is required")
	}
	if _, err := requireMember(s.db, userID, orgID, CapView); err != nil {
		return nil, err
	}
	attendeesJSON, err := json.Marshal(attendees)
	if err != nil {
		attendeesJSON = []byte("[]")
	}
	m := model.QMMeeting{
		OrgID:     orgID,
		Title:     title,
		HeldAt:    heldAt,
		Period:    period,
		Attendees: datatypes.JSON(attendeesJSON),
		Minutes:   minutes,
	}
	if err := s.db.Create(&m).Error; err != nil {
		log.Printf("[CreateMeeting] create failed: %v", err)
		return nil, errs.Wrap(errs.Dependency, err, "failed to create meeting")
	}
	return &m, nil
}

// MeetingPacket bundles what a QM committee reviews in one sitting: the
// meeting itself, the period's readiness snapshot, open findings, and
// overdue checkpoints.
type MeetingPacket struct {
	Meeting            model.QMMeeting            `json:"meeting"`
	ReadinessScore     *model.AuditReadinessScore `json:"readiness_score,omitempty"`
	OpenFindings       []model.Finding            `json:"open_findings"`
	OverdueCheckpoints []model.Checkpoint         `json:"overdue_checkpoints"`
}

// AssemblePacket builds the meeting packet for the meeting's period.
func (s *MeetingService) AssemblePacket(userID, orgID, meetingID string) (*MeetingPacket, error) {
	if _, err := requireMember(s.db, userID, orgID, CapView); err != nil {
		return nil, err
	}
	var m model.QMMeeting
	if err := s.db.Where("id = ? AND org_id = ?", meetingID, orgID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.NotFound, "meeting not found")
		}
		return nil, errs.Wrap(errs.Dependency, err, "failed to load meeting")
	}

	packet := MeetingPacket{Meeting: m}

	if m.Period != "" {
		var score model.AuditReadinessScore
		err := s.db.Where("org_id = ? AND period = ?", orgID, m.Period).First(&score).Error
		if err == nil {
			packet.ReadinessScore = &score
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Wrap(errs.Dependency, err, "failed to load readiness score")
		}
	}

	if err := s.db.Where("org_id = ? AND status = ?", orgID, "open").
		Order("created_at DESC").Find(&packet.OpenFindings).Error; err != nil {
		return nil, errs.Wrap(errs.Dependency, err, "failed to load open findings")
	}

	if err := s.db.Where("org_id = ? AND status = ?", orgID, model.CheckpointOverdue).
		Order("due_date").Find(&packet.OverdueCheckpoints).Error; err != nil {
		return nil, errs.Wrap(errs.Dependency, err, "failed to load overdue checkpoints")
	}

	return &packet, nil
}
