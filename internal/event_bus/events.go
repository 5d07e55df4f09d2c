package event_bus

const (
	PartitionUnavailableEvent EventType = "partition.unavailable"
	MonthLoadedEvent          EventType = "month.loaded"
)

// PartitionUnavailable is published when a resource fell back to empty.
type PartitionUnavailable struct {
	Path string
	Kind string
	// NotFound is false for transport failures (network, status, decoding).
	NotFound bool
	Reason   string
}

// MonthLoaded is published once per month, after its partitions are merged.
type MonthLoaded struct {
	Key     string
	Study   int
	Sleep   int
	Summary int
}
