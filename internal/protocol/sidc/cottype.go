package sidc

import "strings"

// InvalidDescription is returned by Describe for malformed codes.
const InvalidDescription = "Invalid SIDC"

// ToCoTType maps c to an atom CoT type such as "a-f-G-U-C-I".
//
// The mapping is lossy. An unmapped affiliation becomes friend and an
// unmapped dimension/function pair becomes the generic ground combat type.
// Malformed codes map to "a-f-G-U-C".
func ToCoTType(c Code) string {
	letter := affiliationTable[AffiliationFriend].letter
	fragment := defaultTypeFragment
	if !IsValid(c) {
		return "a-" + letter + "-" + fragment
	}

	s := string(c)
	if a, ok := affiliationTable[Affiliation(digit(s, 2))]; ok {
		letter = a.letter
	}
	if entry, ok := lookupFunction(Dimension(digit(s, 3)), s[5:9]); ok {
		fragment = entry.fragment
	}
	return "a-" + letter + "-" + fragment
}

// Describe returns a human-readable label such as
// "Friend Land Unit Infantry (Squad)". It is not an error signal: malformed
// codes yield InvalidDescription.
func Describe(c Code) string {
	if !IsValid(c) {
		return InvalidDescription
	}
	s := string(c)
	dim := Dimension(digit(s, 3))

	parts := []string{
		affiliationTable[Affiliation(digit(s, 2))].label,
		dimensionLabels[dim],
	}
	if entry, ok := lookupFunction(dim, s[5:9]); ok {
		parts = append(parts, entry.label)
	} else {
		parts = append(parts, "Function "+s[5:11])
	}
	out := strings.Join(parts, " ")
	if label, ok := echelonLabels[s[11:13]]; ok {
		out += " (" + label + ")"
	}
	switch Status(digit(s, 4)) {
	case StatusExercise:
		out += " [Exercise]"
	case StatusSimulation:
		out += " [Simulation]"
	}
	return out
}

func lookupFunction(dim Dimension, prefix string) (functionEntry, bool) {
	byPrefix, ok := functionTable[dim]
	if !ok {
		return functionEntry{}, false
	}
	entry, ok := byPrefix[prefix]
	return entry, ok
}
