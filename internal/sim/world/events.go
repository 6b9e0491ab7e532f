package world

// Event kinds: the closed vocabulary of intents. Validator and reducer
// switch exhaustively over these.
const (
	EvMove         = "move"
	EvTravel       = "travel_to_location"
	EvExplore      = "explore"
	EvInspect      = "inspect"
	EvPickupItem   = "pickup_item"
	EvDropItem     = "drop_item"
	EvSpeak        = "speak"
	EvAdvanceTime  = "advance_time"
	EvCreateEntity = "create_entity"
	EvSetFlag      = "set_flag"
)

// Event is one proposed intent. A single flat struct with a kind tag and
// per-kind optional fields; unused fields stay zero.
type Event struct {
	Kind  string `json:"kind"`
	Actor string `json:"actor,omitempty"` // acting actor id

	// move / travel_to_location
	To         *Pos   `json:"to,omitempty"`
	LocationID string `json:"location_id,omitempty"`
	Pace       string `json:"pace,omitempty"`
	// Confirm references a pending clarification prompt id; required for
	// travel intents past the long-travel threshold.
	Confirm string `json:"confirm,omitempty"`

	// explore / advance_time
	Minutes int `json:"minutes,omitempty"`

	// inspect
	TargetID string `json:"target_id,omitempty"`

	// pickup_item / drop_item
	ItemID string `json:"item_id,omitempty"`

	// speak
	Text    string `json:"text,omitempty"`
	ToActor string `json:"to_actor,omitempty"`

	// set_flag
	Key   string `json:"key,omitempty"`
	Value string `json:"value,omitempty"`

	// create_entity: exactly one of these is set.
	NewItem     *Item     `json:"new_item,omitempty"`
	NewLocation *Location `json:"new_location,omitempty"`
	NewActor    *Actor    `json:"new_actor,omitempty"`

	// Stamp is added when the event is accepted; immutable afterwards.
	Stamp *Stamp `json:"stamp,omitempty"`
}

type Stamp struct {
	ID       string `json:"id"`
	Turn     int    `json:"turn"`
	Proposer string `json:"proposer"` // ProposerPlayer/GameMaster/System
	Actor    string `json:"actor,omitempty"`
}

// movementClass reports whether the event can change what the acting player
// perceives, which triggers a knowledge refresh after apply.
func movementClass(kind string) bool {
	switch kind {
	case EvMove, EvTravel, EvExplore:
		return true
	}
	return false
}
