package journal

// Filter defines conditions to select journal records.
type Filter interface {
	// WhereCond returns an SQL substring for "WHERE" with placeholders for
	// arguments (if required) and the arguments.
	WhereCond() (string, []any)

	// Match returns true if the record satisfies the filter conditions.
	// It is applied again after fetching, so a WhereCond is allowed to be
	// coarser than the filter it belongs to.
	Match(*Record) bool
}
