package sidc

// defaultTypeFragment is used for any dimension/function pair not in functionTable.
const defaultTypeFragment = "G-U-C"

var affiliationTable = map[Affiliation]struct {
	label  string
	letter string
}{
	AffiliationPending:       {"Pending", "p"},
	AffiliationUnknown:       {"Unknown", "u"},
	AffiliationAssumedFriend: {"Assumed Friend", "a"},
	AffiliationFriend:        {"Friend", "f"},
	AffiliationNeutral:       {"Neutral", "n"},
	AffiliationSuspect:       {"Suspect", "s"},
	AffiliationHostile:       {"Hostile", "h"},
}

var dimensionLabels = map[Dimension]string{
	DimensionUnknown:       "Unknown",
	DimensionLandUnit:      "Land Unit",
	DimensionLandEquipment: "Land Equipment",
	DimensionSeaSurface:    "Sea Surface",
	DimensionSeaSubsurface: "Sea Subsurface",
	DimensionAir:           "Air",
	DimensionSpace:         "Space",
}

type functionEntry struct {
	label    string
	fragment string
}

// functionTable is keyed by dimension, then by the first four digits of the
// function id. It intentionally covers a small subset of the symbology.
var functionTable = map[Dimension]map[string]functionEntry{
	DimensionLandUnit: {
		"1100": {"Headquarters", "G-U-C"},
		"1101": {"Infantry", "G-U-C-I"},
		"1102": {"Armor", "G-U-C-A"},
		"1103": {"Mechanized Infantry", "G-U-C-I-Z"},
		"1105": {"Artillery", "G-U-C-F"},
		"1108": {"Engineer", "G-U-C-E"},
		"1109": {"Air Defense", "G-U-C-D"},
		"1110": {"Reconnaissance", "G-U-C-R"},
		"1117": {"Special Operations Forces", "G-U-C-S"},
		"1200": {"Combat Service Support", "G-U-S"},
		"1205": {"Medical", "G-U-S-M"},
		"1206": {"Transportation", "G-U-S-T"},
		"1207": {"Maintenance", "G-U-S-X"},
		"1208": {"Supply", "G-U-S-S"},
	},
	DimensionLandEquipment: {
		"1102": {"Tank", "G-E-V-A-T"},
		"1103": {"Armored Personnel Carrier", "G-E-V-A-A"},
		"1105": {"Howitzer", "G-E-W-H"},
		"1109": {"Surface-to-Air Missile Launcher", "G-E-W-M-S"},
	},
	DimensionAir: {
		"1111": {"Fighter", "A-M-F-F"},
		"1112": {"Attack Helicopter", "A-M-H-A"},
		"1113": {"Transport Helicopter", "A-M-H-U"},
		"1114": {"Transport Fixed Wing", "A-M-F-C"},
		"1115": {"Bomber", "A-M-F-B"},
		"1116": {"Cargo Aircraft", "A-M-F-C"},
	},
	DimensionSeaSurface: {
		"1111": {"Destroyer", "S-C-L-D-D"},
		"1112": {"Frigate", "S-C-L-F-F"},
		"1113": {"Cruiser", "S-C-L-C-C"},
		"1114": {"Aircraft Carrier", "S-C-C-V"},
	},
	DimensionSeaSubsurface: {
		"1111": {"Attack Submarine", "U-S-A"},
	},
}

var echelonLabels = map[string]string{
	"11": "Team/Crew",
	"12": "Squad",
	"13": "Section",
	"14": "Platoon",
	"15": "Company",
	"16": "Battalion",
	"17": "Regiment",
	"18": "Brigade",
	"21": "Division",
	"22": "Corps",
	"23": "Army",
	"24": "Army Group",
	"25": "Region",
}
