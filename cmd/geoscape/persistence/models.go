package persistence

import (
	"time"

	"gorm.io/datatypes"
)

// RecordVersion is written into every unit and projectile row.
const RecordVersion = 1

// DatabaseModels lists every table the store migrates.
var DatabaseModels = []interface{}{
	&SaveGame{},
	&BaseRecord{},
	&InstallationRecord{},
	&UnitRecord{},
	&ProjectileRecord{},
	&TrackPoint{},
}

// SaveGame is the header of a saved geoscape.
type SaveGame struct {
	ID        string         `json:"id" gorm:"primaryKey;size:36"`
	Name      string         `json:"name" gorm:"size:127;index:idx_savegame_name"`
	RunID     string         `json:"runId" gorm:"size:36"`
	Tick      int64          `json:"tick"`
	Clock     float64        `json:"clock"`
	Seed      int64          `json:"seed"`
	Counters  datatypes.JSON `json:"counters"`
	Version   int            `json:"version"`
	CreatedAt time.Time      `json:"createdAt" gorm:"index:idx_savegame_created"`
}

func (*SaveGame) TableName() string {
	return "save_games"
}

// BaseRecord is one player base of a save.
type BaseRecord struct {
	ID        uint           `json:"-" gorm:"primaryKey"`
	SaveID    string         `json:"saveId" gorm:"size:36;index:idx_base_save"`
	BaseID    string         `json:"baseId" gorm:"size:64"`
	Name      string         `json:"name" gorm:"size:127"`
	Lon       float64        `json:"lon"`
	Lat       float64        `json:"lat"`
	Radar     datatypes.JSON `json:"radar"`
	Batteries datatypes.JSON `json:"batteries"`
}

func (*BaseRecord) TableName() string {
	return "base_records"
}

// InstallationRecord is one installation of a save.
type InstallationRecord struct {
	ID             uint           `json:"-" gorm:"primaryKey"`
	SaveID         string         `json:"saveId" gorm:"size:36;index:idx_installation_save"`
	InstallationID string         `json:"installationId" gorm:"size:64"`
	Name           string         `json:"name" gorm:"size:127"`
	Lon            float64        `json:"lon"`
	Lat            float64        `json:"lat"`
	Working        bool           `json:"working"`
	Radar          datatypes.JSON `json:"radar"`
	Batteries      datatypes.JSON `json:"batteries"`
}

func (*InstallationRecord) TableName() string {
	return "installation_records"
}

// UnitRecord is a flat aircraft or UFO row.
type UnitRecord struct {
	ID      uint   `json:"-" gorm:"primaryKey"`
	SaveID  string `json:"saveId" gorm:"size:36;index:idx_unit_save"`
	Version int    `json:"version"`

	UnitID     uint64 `json:"unitId"`
	Kind       string `json:"kind" gorm:"size:16"`
	TemplateID string `json:"templateId" gorm:"size:64"`
	Name       string `json:"name" gorm:"size:127"`
	Status     string `json:"status" gorm:"size:32"`

	Lon    float64 `json:"lon"`
	Lat    float64 `json:"lat"`
	Fuel   float64 `json:"fuel"`
	Health float64 `json:"health"`

	Route         datatypes.JSON `json:"route"` // waypoint array
	RouteDistance float64        `json:"routeDistance"`
	Time          float64        `json:"time"`
	Point         int            `json:"point"`

	Target     uint64 `json:"target"`
	Mission    string `json:"mission" gorm:"size:64"`
	Home       string `json:"home" gorm:"size:64"`
	TransferTo string `json:"transferTo" gorm:"size:64"`

	Weapons     datatypes.JSON `json:"weapons"`
	Electronics datatypes.JSON `json:"electronics"`
	Stats       datatypes.JSON `json:"stats"`
	Radar       datatypes.JSON `json:"radar"`

	Detected       bool    `json:"detected"`
	Landed         bool    `json:"landed"`
	Interceptor    bool    `json:"interceptor"`
	DetectionIndex int     `json:"detectionIndex"`
	LastSpotted    float64 `json:"lastSpotted"`
}

func (*UnitRecord) TableName() string {
	return "unit_records"
}

// ProjectileRecord is a flat projectile row.
type ProjectileRecord struct {
	ID      uint   `json:"-" gorm:"primaryKey"`
	SaveID  string `json:"saveId" gorm:"size:36;index:idx_projectile_save"`
	Version int    `json:"version"`

	ProjectileID uint64  `json:"projectileId"`
	AmmoID       string  `json:"ammoId" gorm:"size:64"`
	Lon          float64 `json:"lon"`
	Lat          float64 `json:"lat"`
	IdleLon      float64 `json:"idleLon"`
	IdleLat      float64 `json:"idleLat"`
	AttackerLon  float64 `json:"attackerLon"`
	AttackerLat  float64 `json:"attackerLat"`
	Time         float64 `json:"time"`
	Angle        float64 `json:"angle"`
	Bullets      bool    `json:"bullets"`
	Beam         bool    `json:"beam"`

	Attacker      uint64 `json:"attacker"`
	AttackerIsUFO bool   `json:"attackerIsUfo"`
	Target        uint64 `json:"target"`
}

func (*ProjectileRecord) TableName() string {
	return "projectile_records"
}

// TrackPoint is one sampled unit position of a run. X and Y are EPSG:3857 meters.
type TrackPoint struct {
	ID     uint    `json:"-" gorm:"primaryKey"`
	RunID  string  `json:"runId" gorm:"size:36;index:idx_track_run_unit"`
	UnitID uint64  `json:"unitId" gorm:"index:idx_track_run_unit"`
	Tick   int64   `json:"tick"`
	Lon    float64 `json:"lon"`
	Lat    float64 `json:"lat"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Status string  `json:"status" gorm:"size:32"`
}

func (*TrackPoint) TableName() string {
	return "track_points"
}

// slotRecord is the JSON form of a weapon, electronics or battery slot.
type slotRecord struct {
	Weapon           string  `json:"weapon,omitempty"`
	Ammo             string  `json:"ammo,omitempty"`
	AmmoLeft         int     `json:"ammoLeft,omitempty"`
	DelayNextShot    float64 `json:"delayNextShot,omitempty"`
	InstallationTime int     `json:"installationTime,omitempty"`
	Electronics      string  `json:"electronics,omitempty"`
}

type batteryRecord struct {
	Slot   slotRecord `json:"slot"`
	Target uint64     `json:"target,omitempty"`
}

type radarRecord struct {
	Range                float64 `json:"range"`
	TrackingRange        float64 `json:"trackingRange"`
	DetectionProbability float64 `json:"detectionProbability"`
	MaxContacts          int     `json:"maxContacts"`
}
