package domain

type RoomType string

const (
	RoomSingle RoomType = "SINGLE"
	RoomDouble RoomType = "DOUBLE"
	RoomTwin   RoomType = "TWIN"
	RoomSuite  RoomType = "SUITE"
	RoomFamily RoomType = "FAMILY"
)

func (t RoomType) Valid() bool {
	switch t {
	case RoomSingle, RoomDouble, RoomTwin, RoomSuite, RoomFamily:
		return true
	}
	return false
}

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "AVAILABLE"
	RoomOccupied    RoomStatus = "OCCUPIED"
	RoomCleaning    RoomStatus = "CLEANING"
	RoomMaintenance RoomStatus = "MAINTENANCE"
)

func (s RoomStatus) Valid() bool {
	switch s {
	case RoomAvailable, RoomOccupied, RoomCleaning, RoomMaintenance:
		return true
	}
	return false
}

type Room struct {
	ID          int64      `json:"id"`
	Number      string     `json:"number"`
	Floor       int        `json:"floor"`
	Capacity    int        `json:"capacity"`
	NightlyRate Money      `json:"nightly_rate"`
	Type        RoomType   `json:"type"`
	Status      RoomStatus `json:"status"`
	ManagerID   *int64     `json:"manager_id,omitempty"`
}

func (r Room) Equal(o Room) bool { return sameIdentity(r.ID, o.ID) }

func (r Room) Validate() error {
	if err := required(EntityRoom, "number", r.Number); err != nil {
		return err
	}
	if err := maxLen(EntityRoom, "number", r.Number, 16); err != nil {
		return err
	}
	if r.Capacity <= 0 {
		return invalid(EntityRoom, "capacity", "must be greater than zero")
	}
	if r.NightlyRate < 0 {
		return invalid(EntityRoom, "nightly_rate", "must not be negative")
	}
	if !r.Type.Valid() {
		return invalid(EntityRoom, "type", "unknown room type "+string(r.Type))
	}
	if !r.Status.Valid() {
		return invalid(EntityRoom, "status", "unknown room status "+string(r.Status))
	}
	return nil
}

func (r Room) Clone() Room {
	r.ManagerID = cloneID(r.ManagerID)
	return r
}

type RoomBuilder struct{ r Room }

// NewRoom starts a builder; status defaults to AVAILABLE.
func NewRoom() *RoomBuilder { return &RoomBuilder{r: Room{Status: RoomAvailable}} }

func (b *RoomBuilder) Number(n string) *RoomBuilder     { b.r.Number = n; return b }
func (b *RoomBuilder) Floor(f int) *RoomBuilder         { b.r.Floor = f; return b }
func (b *RoomBuilder) Capacity(c int) *RoomBuilder      { b.r.Capacity = c; return b }
func (b *RoomBuilder) NightlyRate(m Money) *RoomBuilder { b.r.NightlyRate = m; return b }
func (b *RoomBuilder) Type(t RoomType) *RoomBuilder     { b.r.Type = t; return b }
func (b *RoomBuilder) Status(s RoomStatus) *RoomBuilder { b.r.Status = s; return b }

func (b *RoomBuilder) Manager(id int64) *RoomBuilder {
	b.r.ManagerID = &id
	return b
}

func (b *RoomBuilder) Build() Room { return b.r.Clone() }
