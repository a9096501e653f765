package journal

import (
	"strings"

	"github.com/google/uuid"

	"github.com/freifunk-luebeck/fwds/pkg/firmware"
)

// Filters is a set of Filter (logically joined through "AND").
type Filters []Filter

// WhereCond implements Filter.
func (f Filters) WhereCond() (string, []any) {
	return f.joinWhereConds("AND")
}

func (f Filters) joinWhereConds(joinOp string) (string, []any) {
	if len(f) == 0 {
		return "1 = 1", nil
	}

	var whereConds []string
	var args []any
	for _, filter := range f {
		localWhere, localArgs := filter.WhereCond()
		whereConds = append(whereConds, localWhere)
		args = append(args, localArgs...)
	}

	return "(" + strings.Join(whereConds, ") "+joinOp+" (") + ")", args
}

// Match implements Filter.
func (f Filters) Match(record *Record) bool {
	if record == nil {
		return false
	}
	for _, filter := range f {
		if !filter.Match(record) {
			return false
		}
	}
	return true
}

// FiltersOR combines internal filters using OR.
type FiltersOR []Filter

// WhereCond implements Filter.
func (f FiltersOR) WhereCond() (string, []any) {
	whereCond, args := Filters(f).joinWhereConds("OR")
	return "(" + whereCond + ")", args
}

// Match implements Filter.
func (f FiltersOR) Match(record *Record) bool {
	if record == nil {
		return false
	}
	for _, filter := range f {
		if filter.Match(record) {
			return true
		}
	}
	return false
}

// FilterNot inverts conditions. If any of the nested filters are satisfied,
// then FilterNot result is "not satisfied".
type FilterNot []Filter

// WhereCond implements Filter.
func (f FilterNot) WhereCond() (string, []any) {
	whereCond, args := Filters(f).joinWhereConds("OR")
	return "NOT (" + whereCond + ")", args
}

// Match implements Filter.
func (f FilterNot) Match(record *Record) bool {
	if record == nil {
		return false
	}
	for _, filter := range f {
		if filter.Match(record) {
			return false
		}
	}
	return true
}

// FilterImageName defines an image file name condition to select records.
type FilterImageName string

// WhereCond implements Filter.
func (f FilterImageName) WhereCond() (string, []any) {
	return "`image_name` = ?", []any{string(f)}
}

// Match implements Filter.
func (f FilterImageName) Match(record *Record) bool {
	if record == nil {
		return false
	}
	return record.ImageName == string(f)
}

// FilterImageID defines a content ID condition to select records.
type FilterImageID firmware.ImageID

// WhereCond implements Filter.
func (f FilterImageID) WhereCond() (string, []any) {
	return "`image_id` = ?", []any{firmware.ImageID(f)}
}

// Match implements Filter.
func (f FilterImageID) Match(record *Record) bool {
	if record == nil {
		return false
	}
	return record.ImageID == firmware.ImageID(f)
}

// FilterChannel defines a release channel condition to select records.
type FilterChannel firmware.ReleaseChannel

// WhereCond implements Filter.
func (f FilterChannel) WhereCond() (string, []any) {
	return "`channel` = ?", []any{string(f)}
}

// Match implements Filter.
func (f FilterChannel) Match(record *Record) bool {
	if record == nil {
		return false
	}
	return record.Channel == firmware.ReleaseChannel(f)
}

// FilterVerified selects records by their verification outcome.
type FilterVerified bool

// WhereCond implements Filter.
func (f FilterVerified) WhereCond() (string, []any) {
	return "`verified` = ?", []any{bool(f)}
}

// Match implements Filter.
func (f FilterVerified) Match(record *Record) bool {
	if record == nil {
		return false
	}
	return record.Verified == bool(f)
}

// FilterEvent defines an event kind condition to select records.
type FilterEvent Event

// WhereCond implements Filter.
func (f FilterEvent) WhereCond() (string, []any) {
	return "`event` = ?", []any{string(f)}
}

// Match implements Filter.
func (f FilterEvent) Match(record *Record) bool {
	if record == nil {
		return false
	}
	return record.Event == Event(f)
}

// FilterJobID selects the records of one deployment.
type FilterJobID uuid.UUID

// WhereCond implements Filter.
func (f FilterJobID) WhereCond() (string, []any) {
	return "`job_id` = ?", []any{uuid.UUID(f)}
}

// Match implements Filter.
func (f FilterJobID) Match(record *Record) bool {
	if record == nil || record.JobID == nil {
		return false
	}
	return *record.JobID == uuid.UUID(f)
}
