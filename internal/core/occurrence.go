package core

import (
	"encoding/json"
	"strings"
)

const occurrenceSeparator = "_"

// OccurrenceRef identifies a fixed expense as seen in one month: the origin
// expense id plus the month it is projected into.
type OccurrenceRef struct {
	OriginID string
	Month    MonthKey
	// Origin is true when Month is the origin expense's own month. Such
	// occurrences are addressed by the bare origin id.
	Origin bool
}

// NewOccurrenceRef builds the reference of origin e projected into month.
func NewOccurrenceRef(e Expense, month MonthKey) OccurrenceRef {
	return OccurrenceRef{OriginID: e.ID, Month: month, Origin: e.OriginMonth() == month}
}

// String encodes the reference: the origin id for the origin month,
// otherwise originId + "_" + YYYY-MM.
func (r OccurrenceRef) String() string {
	if r.Origin {
		return r.OriginID
	}
	return r.OriginID + occurrenceSeparator + r.Month.String()
}

// ParseOccurrenceID decodes an occurrence id. The month suffix is only
// recognised when the text after the last separator is a valid month key, so
// origin ids that contain underscores decode as bare origin ids. The second
// return value is false for bare ids, whose month is unknown until resolved
// against the origin record.
func ParseOccurrenceID(id string) (OccurrenceRef, bool) {
	i := strings.LastIndex(id, occurrenceSeparator)
	if i <= 0 || i == len(id)-1 {
		return OccurrenceRef{OriginID: id, Origin: true}, false
	}
	month, err := ParseMonthKey(id[i+1:])
	if err != nil {
		return OccurrenceRef{OriginID: id, Origin: true}, false
	}
	return OccurrenceRef{OriginID: id[:i], Month: month}, true
}

// Occurrence is the read-only view of a fixed expense for a target month.
// It is derived on demand and never persisted except inside a MonthlyData
// snapshot.
type Occurrence struct {
	Ref     OccurrenceRef
	Expense Expense
}

// ID returns the encoded occurrence id.
func (o Occurrence) ID() string { return o.Ref.String() }

// DueDate is the due date adjusted to the occurrence month.
func (o Occurrence) DueDate() Date { return o.Expense.DueDate }

// IsPaid is the payment status resolved for the occurrence month.
func (o Occurrence) IsPaid() bool { return o.Expense.IsPaid }

type occurrenceJSON struct {
	Expense
	OriginID string   `json:"originId"`
	MonthKey MonthKey `json:"monthKey"`
}

func (o Occurrence) MarshalJSON() ([]byte, error) {
	e := o.Expense
	e.ID = o.ID()
	return json.Marshal(occurrenceJSON{Expense: e, OriginID: o.Ref.OriginID, MonthKey: o.Ref.Month})
}

func (o *Occurrence) UnmarshalJSON(data []byte) error {
	var raw occurrenceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ref := OccurrenceRef{OriginID: raw.OriginID, Month: raw.MonthKey}
	ref.Origin = raw.Expense.ID == raw.OriginID
	raw.Expense.ID = raw.OriginID
	*o = Occurrence{Ref: ref, Expense: raw.Expense}
	return nil
}
