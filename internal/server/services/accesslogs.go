package services

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/folio/internal/common"
	"github.com/dmitrijs2005/folio/internal/server/docstore"
	"github.com/dmitrijs2005/folio/internal/server/models"
	"github.com/dmitrijs2005/folio/internal/server/repositories/repomanager"
)

// AccessLogService records requests and queries them by time.
type AccessLogService struct {
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewAccessLogService(m repomanager.RepositoryManager) *AccessLogService {
	return &AccessLogService{repomanager: m, now: time.Now}
}

// Record appends one entry stamped with the current time.
func (s *AccessLogService) Record(ctx context.Context, ip, method, url string) error {
	_, err := s.repomanager.AccessLogs().Insert(ctx, models.AccessLogEntry{
		IP:     ip,
		Method: method,
		URL:    url,
		Time:   s.now().UTC(),
	})
	return common.StorageFailure(err)
}

// parseTime accepts RFC 3339 timestamps and plain dates. A plain date as
// the end of a range covers that whole day.
func parseTime(value string, endOfDay bool) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), true
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, true
}

// Query returns entries with start <= time <= end. start is required; an
// empty end means now.
func (s *AccessLogService) Query(ctx context.Context, start, end string) ([]models.AccessLogEntry, error) {
	if strings.TrimSpace(start) == "" {
		return nil, common.ErrInvalidStartTime
	}
	from, ok := parseTime(start, false)
	if !ok {
		return nil, common.ErrInvalidStartTime.WithMessage("invalid start time")
	}

	to := s.now().UTC()
	if strings.TrimSpace(end) != "" {
		if to, ok = parseTime(end, true); !ok {
			return nil, common.ErrValidation.WithMessage("invalid end time")
		}
	}

	entries, err := s.repomanager.AccessLogs().Find(ctx, docstore.Where(
		docstore.Gte(models.AccessLogTime, from),
		docstore.Lte(models.AccessLogTime, to),
	))
	if err != nil {
		return nil, common.StorageFailure(err)
	}
	return entries, nil
}
