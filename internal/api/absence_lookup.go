package api

import (
	"context"

	"github.com/jw6ventures/timeclock/internal/reporting"
	"github.com/jw6ventures/timeclock/internal/store"
)

type reasonJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type absenceJSON struct {
	ID        int64      `json:"id"`
	StartDate string     `json:"start_date"`
	EndDate   string     `json:"end_date"`
	Reason    reasonJSON `json:"reason"`
}

// absenceIndex resolves the absence covering a day within one period. Absences whose
// reason no longer exists are skipped.
type absenceIndex struct {
	absences []store.Absence
	reasons  map[int64]store.AbsenceReason
}

func (h *Handler) loadAbsences(ctx context.Context, userID int64, period reporting.Period) (absenceIndex, error) {
	absences, err := h.absences.ListOverlapping(ctx, userID, period)
	if err != nil {
		return absenceIndex{}, err
	}
	if len(absences) == 0 {
		return absenceIndex{}, nil
	}
	idx, err := h.reasonIndex(ctx, userID)
	if err != nil {
		return absenceIndex{}, err
	}
	idx.absences = absences
	return idx, nil
}

func (h *Handler) reasonIndex(ctx context.Context, userID int64) (absenceIndex, error) {
	reasons, err := h.reasons.ListByUser(ctx, userID)
	if err != nil {
		return absenceIndex{}, err
	}
	idx := absenceIndex{reasons: make(map[int64]store.AbsenceReason, len(reasons))}
	for _, reason := range reasons {
		idx.reasons[reason.ID] = reason
	}
	return idx, nil
}

func (idx absenceIndex) toJSON(a store.Absence) (*absenceJSON, bool) {
	reason, ok := idx.reasons[a.ReasonID]
	if !ok {
		return nil, false
	}
	return &absenceJSON{
		ID:        a.ID,
		StartDate: a.StartDate.String(),
		EndDate:   a.EndDate.String(),
		Reason:    reasonJSON{ID: reason.ID, Name: reason.Name},
	}, true
}

func (idx absenceIndex) on(d reporting.Date) *absenceJSON {
	for i := range idx.absences {
		if !idx.absences[i].Covers(d) {
			continue
		}
		if out, ok := idx.toJSON(idx.absences[i]); ok {
			return out
		}
	}
	return nil
}
