package vectorize

import (
	"time"

	"github.com/alphamail/chatbot/internal/core"
)

// ScheduleAdapter indexes schedules privately for their user.
type ScheduleAdapter struct {
	Schedule core.Schedule
	Zone     *time.Location
}

func (a ScheduleAdapter) InZone(loc *time.Location) core.VectorizableEntity {
	a.Zone = loc
	return a
}

func (a ScheduleAdapter) ID() string {
	return formatID(a.Schedule.ID)
}

func (a ScheduleAdapter) DocumentType() core.DocumentType {
	return core.DocumentTypeSchedule
}

func (a ScheduleAdapter) VectorText() string {
	status := "예정"
	if a.Schedule.Completed {
		status = "완료"
	}

	var l labeledLines
	l.add("일정명", a.Schedule.Name)
	l.add("설명", a.Schedule.Description)
	l.add("시작 시간", formatTime(a.Schedule.StartTime, a.Zone))
	l.add("종료 시간", formatTime(a.Schedule.EndTime, a.Zone))
	l.add("상태", status)
	return l.String()
}

func (a ScheduleAdapter) Metadata() core.DocumentMetadata {
	return core.DocumentMetadata{
		OwnerID:      a.Schedule.UserID,
		OwnerType:    core.OwnerTypeUser,
		UserID:       a.Schedule.UserID,
		DocumentType: core.DocumentTypeSchedule,
		DomainID:     a.Schedule.ID,
	}
}
