package prometheus

// Sizer reports the outbox backlog: queue size counts unpublished records,
// total size everything still in the table. The outbox repository implements
// it over the live table.
type Sizer interface {
	GetQueueSize() (uint, error)
	GetTotalSize() (uint, error)
}
