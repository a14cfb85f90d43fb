package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecurringEntry is a template posted automatically each month once the
// configured day of month has passed.
type RecurringEntry struct {
	ID         int64
	Memo       string
	DayOfMonth int
	IsActive   bool
	Lines      []LineInput
}

var recurringNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// recurringSourceID derives a stable id per template and month so a template
// posts at most once per month regardless of how often the job runs.
func recurringSourceID(templateID int64, period time.Time) uuid.UUID {
	key := fmt.Sprintf("RECURRING:%d:%s", templateID, period.Format("200601"))
	return uuid.NewSHA1(recurringNamespace, []byte(key))
}

// PostRecurringEntries posts every active template due on or before now's
// day of month that has not yet posted this month. A template that fails to
// post is logged and skipped so the rest of the batch still runs. Returns
// the number of entries posted.
func (s *Service) PostRecurringEntries(ctx context.Context, now time.Time) (int, error) {
	var templates []RecurringEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		templates, err = tx.ListActiveRecurring(ctx, now.Day())
		return err
	})
	if err != nil {
		return 0, err
	}

	posted := 0
	for _, tpl := range templates {
		in := PostingInput{
			Type:         EntryTypeRecurring,
			Date:         time.Date(now.Year(), now.Month(), tpl.DayOfMonth, 0, 0, 0, 0, time.UTC),
			Memo:         tpl.Memo,
			SourceModule: "recurring",
			SourceID:     recurringSourceID(tpl.ID, now),
			CreatedBy:    "system",
			Lines:        tpl.Lines,
		}
		_, err := s.Post(ctx, in)
		if errors.Is(err, ErrSourceAlreadyLinked) {
			continue
		}
		if err != nil {
			s.logger.Error("recurring entry failed", "template_id", tpl.ID, "error", err)
			continue
		}
		posted++
	}
	return posted, nil
}
