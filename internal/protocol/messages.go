package protocol

// HELLO (client -> server): claim a character by name.
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	CharacterName   string `json:"character_name"`
	ResumeToken     string `json:"resume_token,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	CharacterID     string      `json:"character_id"`
	ResumeToken     string      `json:"resume_token"`
	WorldParams     WorldParams `json:"world_params"`
}

type WorldParams struct {
	Width           int `json:"width"`
	Height          int `json:"height"`
	MaxTalkDistance int `json:"max_talk_distance"`
	TurnTimeoutMs   int `json:"turn_timeout_ms"`
}

// KNOWLEDGE (server -> client): everything the character currently perceives
// and the actions it may legally take this turn.
type KnowledgeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Turn            int    `json:"turn"`
	CharacterID     string `json:"character_id"`

	Self            SelfView        `json:"self"`
	VisibleTiles    []TileView      `json:"visible_tiles"`
	VisibleChars    []CharacterView `json:"visible_characters"`
	VisibleItems    []ItemView      `json:"visible_items"`
	MapMemory       []MemoryPair    `json:"map_memory,omitempty"`
	Events          []EventView     `json:"events"`
	PossibleActions []ActReq        `json:"possible_actions"`
}

type SelfView struct {
	Pos              [2]int     `json:"pos"`
	HP               int        `json:"hp"`
	MaxHP            int        `json:"max_hp"`
	MovementRange    int        `json:"movement_range"`
	ViewDistance     int        `json:"view_distance"`
	Inventory        []ItemView `json:"inventory"`
	EquippedWeapon   string     `json:"equipped_weapon,omitempty"`
	EquippedClothing string     `json:"equipped_clothing,omitempty"`
	Effects          []string   `json:"effects,omitempty"`
}

type TileView struct {
	Pos     [2]int `json:"pos"`
	Terrain string `json:"terrain"`
	Feature string `json:"feature,omitempty"`
	RoomID  string `json:"room_id,omitempty"`
}

type CharacterView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Pos   [2]int `json:"pos"`
	Alive bool   `json:"alive"`
}

type ItemView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
	Pos  [2]int `json:"pos,omitempty"`
}

// MemoryPair is the portable wire form of one map-memory entry.
type MemoryPair struct {
	Key   [2]int     `json:"key"`
	Value MemoryView `json:"value"`
}

type MemoryView struct {
	Terrain      string   `json:"terrain"`
	LastSeenTurn int      `json:"last_seen_turn"`
	Items        []string `json:"items,omitempty"`
	Character    string   `json:"character,omitempty"`
	Feature      string   `json:"feature,omitempty"`
}

type EventView struct {
	Turn        int    `json:"turn"`
	ActorID     string `json:"actor_id,omitempty"`
	TargetID    string `json:"target_id,omitempty"`
	ItemID      string `json:"item_id,omitempty"`
	Pos         []int  `json:"pos,omitempty"`
	Damage      int    `json:"damage,omitempty"`
	Message     string `json:"message,omitempty"`
	Description string `json:"description"`
}

// ACT (client -> server): the chosen action for this turn. One flat shape on
// the wire; the transport layer maps it into the engine's closed action type
// and rejects anything that does not fit.
type ActMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Turn            int    `json:"turn"`
	CharacterID     string `json:"character_id"`
	Action          ActReq `json:"action"`
}

type ActReq struct {
	Kind string `json:"kind"`

	To         []int  `json:"to,omitempty"`          // move, move_toward, place
	TargetID   string `json:"target_id,omitempty"`   // attack, talk, issue_contract
	ItemID     string `json:"item_id,omitempty"`     // drop, equip, unequip, use, place
	ItemName   string `json:"item_name,omitempty"`   // pick_up
	FeatureID  string `json:"feature_id,omitempty"`  // search_container, unlock
	ContractID string `json:"contract_id,omitempty"` // sign_contract, decline_contract
	Text       string `json:"text,omitempty"`        // talk
	Contents   string `json:"contents,omitempty"`    // issue_contract
	ExpiryTurn int    `json:"expiry_turn,omitempty"` // issue_contract
}

// RESULT (server -> client)
type ResultMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Turn            int         `json:"turn"`
	CharacterID     string      `json:"character_id"`
	OK              bool        `json:"ok"`
	Code            string      `json:"code,omitempty"`
	Message         string      `json:"message"`
	Events          []EventView `json:"events,omitempty"`
}
