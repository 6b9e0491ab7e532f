package protocol

// Version is the engine/API protocol version.
const Version = "1.0"

// SchemaVersion tags persisted snapshots. Loading a snapshot whose tag does
// not share SchemaVersionPrefix must fail with an incompatible-session error
// instead of attempting a lossy upgrade.
const (
	SchemaVersion       = "tc1.0"
	SchemaVersionPrefix = "tc1"
)
