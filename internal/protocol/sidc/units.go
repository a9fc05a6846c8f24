package sidc

// FriendlyInfantry returns a friendly land-unit infantry code.
func FriendlyInfantry(ech Echelon) Code {
	return Encode(AffiliationFriend, DimensionLandUnit, StatusReality, FunctionInfantry, ech, 0)
}

// HostileArmor returns a hostile land-unit armor code.
func HostileArmor(ech Echelon) Code {
	return Encode(AffiliationHostile, DimensionLandUnit, StatusReality, FunctionArmor, ech, 0)
}

// NeutralMedical returns a neutral land-unit medical code.
func NeutralMedical(ech Echelon) Code {
	return Encode(AffiliationNeutral, DimensionLandUnit, StatusReality, FunctionMedical, ech, 0)
}

// FriendlyAircraft returns a friendly air code for fn.
func FriendlyAircraft(fn FunctionID) Code {
	return Encode(AffiliationFriend, DimensionAir, StatusReality, fn, EchelonNone, 0)
}

// HostileNaval returns a hostile sea-surface code for fn.
func HostileNaval(fn FunctionID) Code {
	return Encode(AffiliationHostile, DimensionSeaSurface, StatusReality, fn, EchelonNone, 0)
}
