package sidc

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	// Length is the exact number of digits in a well-formed code.
	Length = 20
	// Prefix is the fixed version+context field.
	Prefix = "10"
	// ModifierExtension is the reserved trailing field.
	ModifierExtension = "0000"
)

var ErrInvalidCode = errors.New("sidc: invalid code")

// Code is a 20-digit symbol identification code.
type Code string

// Affiliation is position 2 of a code.
type Affiliation int

const (
	AffiliationPending Affiliation = iota
	AffiliationUnknown
	AffiliationAssumedFriend
	AffiliationFriend
	AffiliationNeutral
	AffiliationSuspect
	AffiliationHostile
)

// Dimension is position 3 of a code.
type Dimension int

const (
	DimensionUnknown Dimension = iota
	DimensionLandUnit
	DimensionLandEquipment
	DimensionSeaSurface
	DimensionSeaSubsurface
	DimensionAir
	DimensionSpace
)

// Status is position 4 of a code.
type Status int

const (
	StatusReality Status = iota
	StatusExercise
	StatusSimulation
)

// FunctionID occupies positions 5-10. Values are reused across dimensions,
// so the same number means different things in the air and at sea.
type FunctionID int

const (
	FunctionHeadquarters   FunctionID = 110000
	FunctionInfantry       FunctionID = 110100
	FunctionArmor          FunctionID = 110200
	FunctionMechanized     FunctionID = 110300
	FunctionArtillery      FunctionID = 110500
	FunctionEngineer       FunctionID = 110800
	FunctionAirDefense     FunctionID = 110900
	FunctionReconnaissance FunctionID = 111000
	FunctionSpecialForces  FunctionID = 111700
	FunctionCommando       FunctionID = 111701

	FunctionLogistics      FunctionID = 120000
	FunctionMedical        FunctionID = 120500
	FunctionTransportation FunctionID = 120600
	FunctionMaintenance    FunctionID = 120700
	FunctionSupply         FunctionID = 120800

	FunctionTankM1      FunctionID = 110201
	FunctionAPC         FunctionID = 110301
	FunctionIFV         FunctionID = 110302
	FunctionHowitzer    FunctionID = 110501
	FunctionSAMLauncher FunctionID = 110901

	FunctionFighter        FunctionID = 111100
	FunctionAttackHelo     FunctionID = 111200
	FunctionTransportHelo  FunctionID = 111300
	FunctionTransportFixed FunctionID = 111400
	FunctionBomber         FunctionID = 111500
	FunctionCargoAircraft  FunctionID = 111600

	FunctionDestroyer FunctionID = 111100
	FunctionFrigate   FunctionID = 111200
	FunctionCruiser   FunctionID = 111300
	FunctionCarrier   FunctionID = 111400

	FunctionAttackSubmarine FunctionID = 111100
)

// Echelon occupies positions 11-12.
type Echelon int

const (
	EchelonNone      Echelon = 0
	EchelonTeamCrew  Echelon = 11
	EchelonSquad     Echelon = 12
	EchelonSection   Echelon = 13
	EchelonPlatoon   Echelon = 14
	EchelonCompany   Echelon = 15
	EchelonBattalion Echelon = 16
	EchelonRegiment  Echelon = 17
	EchelonBrigade   Echelon = 18
	EchelonDivision  Echelon = 21
	EchelonCorps     Echelon = 22
	EchelonArmy      Echelon = 23
	EchelonArmyGroup Echelon = 24
	EchelonRegion    Echelon = 25
)

// Fields is the decoded form of a code.
type Fields struct {
	Affiliation Affiliation
	Dimension   Dimension
	Status      Status
	Function    FunctionID
	Echelon     Echelon
	Country     int
}

// DefaultFields returns a friendly land-unit infantry symbol with no echelon.
func DefaultFields() Fields {
	return Fields{
		Affiliation: AffiliationFriend,
		Dimension:   DimensionLandUnit,
		Status:      StatusReality,
		Function:    FunctionInfantry,
		Echelon:     EchelonNone,
		Country:     0,
	}
}

// Code encodes f. See Encode.
func (f Fields) Code() Code {
	return Encode(f.Affiliation, f.Dimension, f.Status, f.Function, f.Echelon, f.Country)
}

// Encode builds a code from its fields. Numeric fields are zero-padded to
// their fixed width. Inputs are trusted: out-of-range values are not rejected.
func Encode(aff Affiliation, dim Dimension, status Status, fn FunctionID, ech Echelon, country int) Code {
	return Code(fmt.Sprintf("%s%d%d%d%06d%02d%03d%s",
		Prefix, int(aff), int(dim), int(status), int(fn), int(ech), country, ModifierExtension))
}

// IsValid reports whether c is structurally well formed.
func IsValid(c Code) bool {
	s := string(c)
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	if s[:2] != Prefix {
		return false
	}
	if digit(s, 2) > int(AffiliationHostile) {
		return false
	}
	if digit(s, 3) > int(DimensionSpace) {
		return false
	}
	if digit(s, 4) > int(StatusSimulation) {
		return false
	}
	return true
}

// Decode splits c into its fields.
func Decode(c Code) (Fields, error) {
	if !IsValid(c) {
		return Fields{}, fmt.Errorf("%w: %q", ErrInvalidCode, string(c))
	}
	s := string(c)
	fn, _ := strconv.Atoi(s[5:11])
	ech, _ := strconv.Atoi(s[11:13])
	country, _ := strconv.Atoi(s[13:16])
	return Fields{
		Affiliation: Affiliation(digit(s, 2)),
		Dimension:   Dimension(digit(s, 3)),
		Status:      Status(digit(s, 4)),
		Function:    FunctionID(fn),
		Echelon:     Echelon(ech),
		Country:     country,
	}, nil
}

func (c Code) String() string { return string(c) }

func digit(s string, i int) int {
	return int(s[i] - '0')
}
