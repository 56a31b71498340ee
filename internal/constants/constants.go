package constants

import "time"

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	DefaultInputTopic = "record_events"
	DefaultDLQTopic   = "record_events_dlq"
)

const (
	CacheKeyPrefixPrefs    = "prefs:"
	CacheKeyPrefixUser     = "dir:user:"
	CacheKeyPrefixCase     = "dir:case:"
	CacheKeyPrefixCaseTeam = "dir:caseteam:"
)

const (
	DefaultCacheTTL        = 5 * time.Minute
	DefaultProviderTimeout = 5 * time.Second
	ShutdownTimeout        = 5 * time.Second
)

// Tables with dedicated message builders and recipient strategies. Anything
// else goes through the generic fallback paths.
const (
	TableCases        = "cases"
	TableClients      = "clients"
	TableAppointments = "appointments"
	TableTasks        = "tasks"
	TableHearings     = "hearings"
	TableDocuments    = "documents"
	TableCaseOrders   = "case_orders"
	TableNotes        = "notes"
)

const (
	TaskStatusCompleted = "completed"
)

const (
	DeliveryMethodProvider = "provider"
	DeliveryMethodDirect   = "direct"
)
