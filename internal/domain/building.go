package domain

// Building is an immutable catalog entry. Cost is unique per definition.
type Building struct {
	ID     int64  `db:"id"`
	Name   string `db:"name"`
	Cost   int64  `db:"cost"`
	Income int64  `db:"income"`
}

// BuildingView is a catalog entry as shown to a user: income is
// pre-multiplied by the user's prestige, so the listing always matches what
// the tick will actually pay. Players start at prestige 1.
type BuildingView struct {
	Building
	Owned int64 `json:"owned"`
}

// View returns the building with income scaled by prestige.
func (b Building) View(prestige, owned int64) BuildingView {
	v := BuildingView{Building: b, Owned: owned}
	v.Income = b.Income * prestige
	return v
}

type Ownership struct {
	UserID     int64 `db:"user_id"`
	BuildingID int64 `db:"building_id"`
	Count      int64 `db:"count"`
}
